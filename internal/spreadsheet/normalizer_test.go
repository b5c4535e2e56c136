package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

func TestNormalize_MapsColumnsCaseInsensitively(t *testing.T) {
	t.Parallel()

	table := Table{
		Header: []string{" Quantity ", "Series", "ID", "TYRE SIZE", "Company", "Notes"},
		Rows: [][]string{
			{"10", "", "1", "155 70 R13", "Acme", "ignored"},
			{"5", "Eco", "", " 185 65 R14 ", ""},
		},
	}

	rows, err := Normalize(table)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].ID)
	assert.Equal(t, int64(1), *rows[0].ID)
	assert.Equal(t, "155 70 R13", rows[0].Size)
	require.NotNil(t, rows[0].Company)
	assert.Equal(t, "Acme", *rows[0].Company)
	assert.Nil(t, rows[0].Series, "blank cell maps to absent")
	assert.Equal(t, 10, rows[0].Quantity)
	assert.Equal(t, 2, rows[0].Line)

	assert.Nil(t, rows[1].ID)
	assert.Equal(t, "185 65 R14", rows[1].Size)
	assert.Nil(t, rows[1].Company)
	require.NotNil(t, rows[1].Series)
	assert.Equal(t, "Eco", *rows[1].Series)
	assert.Equal(t, 3, rows[1].Line)
}

func TestNormalize_MissingRequiredColumns(t *testing.T) {
	t.Parallel()

	_, err := Normalize(Table{Header: []string{"Tyre Size", "Company"}})

	require.ErrorIs(t, err, models.ErrFormat)
	var formatErr *models.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, []string{"id", "quantity"}, formatErr.Missing)
}

func TestNormalize_OptionalColumnsAbsent(t *testing.T) {
	t.Parallel()

	rows, err := Normalize(Table{
		Header: []string{"id", "tyre size", "quantity"},
		Rows:   [][]string{{"3", "175 70 R13", "2"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Company)
	assert.Nil(t, rows[0].Series)
}

func TestNormalize_IdentifierFallback(t *testing.T) {
	t.Parallel()

	rows, err := Normalize(Table{
		Header: []string{"id", "tyre size", "quantity"},
		Rows: [][]string{
			{"abc", "175 70 R13", "1"},
			{"12.0", "175 70 R13", "1"},
			{"1.5", "175 70 R13", "1"},
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Nil(t, rows[0].ID, "unparseable identifier is treated as absent")
	require.NotNil(t, rows[1].ID)
	assert.Equal(t, int64(12), *rows[1].ID)
	assert.Nil(t, rows[2].ID)
}

func TestNormalize_QuantityRules(t *testing.T) {
	t.Parallel()

	rows, err := Normalize(Table{
		Header: []string{"id", "tyre size", "quantity"},
		Rows: [][]string{
			{"1", "175 70 R13"},
			{"2", "175 70 R13", ""},
			{"3", "175 70 R13", "7.0"},
			{"4", "175 70 R13", "-3"},
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, 0, rows[0].Quantity, "missing cell is zero")
	assert.Equal(t, 0, rows[1].Quantity, "blank cell is zero")
	assert.Equal(t, 7, rows[2].Quantity)
	assert.Equal(t, -3, rows[3].Quantity)

	_, err = Normalize(Table{
		Header: []string{"id", "tyre size", "quantity"},
		Rows:   [][]string{{"1", "175 70 R13", "ten"}},
	})
	require.ErrorIs(t, err, models.ErrFormat)
	assert.Contains(t, err.Error(), `line 2: quantity "ten"`)
}

func TestNormalize_BlankSizeFails(t *testing.T) {
	t.Parallel()

	_, err := Normalize(Table{
		Header: []string{"id", "tyre size", "quantity"},
		Rows: [][]string{
			{"1", "175 70 R13", "1"},
			{"2", "  ", "1"},
		},
	})
	require.ErrorIs(t, err, models.ErrFormat)
	assert.Contains(t, err.Error(), "line 3: tyre size is blank")
}

func TestNormalize_SkipsBlankRowsKeepsOrder(t *testing.T) {
	t.Parallel()

	rows, err := Normalize(Table{
		Header: []string{"id", "tyre size", "quantity"},
		Rows: [][]string{
			{"", "B", "1"},
			{},
			{" ", "", ""},
			{"", "A", "2"},
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Size)
	assert.Equal(t, "A", rows[1].Size)
	assert.Equal(t, 5, rows[1].Line)
}

func TestNormalize_ExportHeadersReimport(t *testing.T) {
	t.Parallel()

	rows, err := Normalize(Table{
		Header: ItemHeader,
		Rows:   [][]string{{"9", "205 55 R16", "Acme", "Sport", "4", "2025-03-14T09:30:00Z"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ID)
	assert.Equal(t, int64(9), *rows[0].ID)
	assert.Equal(t, 4, rows[0].Quantity)
	require.NotNil(t, rows[0].Series)
	assert.Equal(t, "Sport", *rows[0].Series)
}

func TestFromSheetValues(t *testing.T) {
	t.Parallel()

	table := FromSheetValues([][]interface{}{
		{"ID", "Tyre Size", "Quantity"},
		{"", "155 70 R13", float64(4)},
		{1, "185 65 R14", nil},
	})

	assert.Equal(t, []string{"ID", "Tyre Size", "Quantity"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"", "155 70 R13", "4"}, table.Rows[0])
	assert.Equal(t, []string{"1", "185 65 R14", ""}, table.Rows[1])

	assert.Equal(t, Table{}, FromSheetValues(nil))
}

package spreadsheet

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

const (
	itemsSheet        = "Inventory"
	transactionsSheet = "Transactions"
	exportTimeLayout  = time.RFC3339
)

// ItemHeader and TransactionHeader are the column names of the exports.
var (
	ItemHeader        = []string{"id", "tyre_size", "company", "series", "qty", "last_updated"}
	TransactionHeader = []string{"id", "item_id", "tyre_size", "company", "series", "change", "reason", "timestamp", "note"}
)

// ReadXLSX loads the first sheet of an xlsx workbook into a Table.
func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, &models.FormatError{Problems: []string{fmt.Sprintf("not a readable xlsx workbook: %v", err)}}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, &models.FormatError{Problems: []string{"workbook has no sheets"}}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return tableFromRows(rows), nil
}

// WriteItems writes the inventory as a workbook with the ItemHeader columns.
func WriteItems(w io.Writer, items []models.StockRecord) error {
	return writeWorkbook(w, itemsSheet, ItemValues(items))
}

// WriteTransactions writes the audit log, in the given order, as a workbook
// with the TransactionHeader columns.
func WriteTransactions(w io.Writer, entries []models.AuditEntry) error {
	grid := make([][]interface{}, 0, len(entries)+1)
	grid = append(grid, headerValues(TransactionHeader))
	for _, e := range entries {
		grid = append(grid, []interface{}{
			e.ID, e.ItemID, e.Size, models.Deref(e.Company), models.Deref(e.Series),
			e.Change, string(e.Reason), e.Timestamp.UTC().Format(exportTimeLayout), models.Deref(e.Note),
		})
	}
	return writeWorkbook(w, transactionsSheet, grid)
}

func writeWorkbook(w io.Writer, sheet string, grid [][]interface{}) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, values := range grid {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		row := values
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func tableFromRows(rows [][]string) Table {
	if len(rows) == 0 {
		return Table{}
	}
	return Table{Header: rows[0], Rows: rows[1:]}
}

func headerValues(header []string) []interface{} {
	values := make([]interface{}, len(header))
	for i, name := range header {
		values[i] = name
	}
	return values
}

// Package spreadsheet maps uploaded tables onto canonical stock rows and
// writes the inventory and audit log back out as workbooks.
package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

// Table is an untyped grid: one header row followed by data rows. Rows may be
// shorter than the header; missing cells are blank.
type Table struct {
	Header []string
	Rows   [][]string
}

type column string

const (
	columnID       column = "id"
	columnSize     column = "tyre size"
	columnQuantity column = "quantity"
	columnCompany  column = "company"
	columnSeries   column = "series"
)

var requiredColumns = []column{columnID, columnSize, columnQuantity}

// headerAliases maps a normalized header to the column it stands for. The
// export headers are included so that a backup re-imports as is.
var headerAliases = map[string]column{
	"id":         columnID,
	"identifier": columnID,
	"item id":    columnID,
	"tyre size":  columnSize,
	"size":       columnSize,
	"quantity":   columnQuantity,
	"qty":        columnQuantity,
	"company":    columnCompany,
	"series":     columnSeries,
}

// Normalizer converts tables into canonical rows.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer builds a normalizer. A nil logger discards output.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Normalize is shorthand for a normalizer without logging.
func Normalize(table Table) ([]models.CanonicalRow, error) {
	return NewNormalizer(nil).Normalize(table)
}

// Normalize maps table onto canonical rows, preserving row order.
//
// An identifier cell that is present but not an integer is treated as
// absent, which routes the row to signature matching. Every other problem
// (missing required columns, blank size, non-numeric quantity) fails the
// whole table with a *models.FormatError before anything is written.
func (n *Normalizer) Normalize(table Table) ([]models.CanonicalRow, error) {
	index := mapHeader(table.Header)

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := index[required]; !ok {
			missing = append(missing, string(required))
		}
	}
	if len(missing) > 0 {
		return nil, &models.FormatError{
			Missing:  missing,
			Problems: []string{fmt.Sprintf("found columns: %s", strings.Join(table.Header, ", "))},
		}
	}

	rows := make([]models.CanonicalRow, 0, len(table.Rows))
	var problems []string

	for i, raw := range table.Rows {
		line := i + 2 // 1-based, after the header
		if blankRow(raw) {
			continue
		}

		row := models.CanonicalRow{Line: line}

		idCell := cell(raw, index, columnID)
		if idCell != "" {
			if id, ok := parseWhole(idCell); ok {
				row.ID = &id
			} else {
				n.logger.Debug("identifier cell is not an integer, matching by signature",
					zap.Int("line", line), zap.String("value", idCell))
			}
		}

		row.Size = cell(raw, index, columnSize)
		if row.Size == "" {
			problems = append(problems, fmt.Sprintf("line %d: tyre size is blank", line))
		}

		row.Company = models.OptionalString(cell(raw, index, columnCompany))
		row.Series = models.OptionalString(cell(raw, index, columnSeries))

		if qtyCell := cell(raw, index, columnQuantity); qtyCell != "" {
			qty, ok := parseWhole(qtyCell)
			if !ok || qty > math.MaxInt32 || qty < math.MinInt32 {
				problems = append(problems, fmt.Sprintf("line %d: quantity %q is not a whole number", line, qtyCell))
			}
			row.Quantity = int(qty)
		}

		rows = append(rows, row)
	}

	if len(problems) > 0 {
		return nil, &models.FormatError{Problems: problems}
	}

	return rows, nil
}

func mapHeader(header []string) map[column]int {
	index := make(map[column]int, len(header))
	for i, name := range header {
		col, ok := headerAliases[normalizeHeader(name)]
		if !ok {
			continue
		}
		if _, seen := index[col]; !seen {
			index[col] = i
		}
	}
	return index
}

// normalizeHeader lowercases, trims and folds underscores and repeated
// whitespace into single spaces, so "Tyre_Size" and " tyre  size " agree.
func normalizeHeader(name string) string {
	name = strings.ReplaceAll(strings.ToLower(name), "_", " ")
	return strings.Join(strings.Fields(name), " ")
}

func cell(raw []string, index map[column]int, col column) string {
	i, ok := index[col]
	if !ok || i >= len(raw) {
		return ""
	}
	return strings.TrimSpace(raw[i])
}

func blankRow(raw []string) bool {
	for _, value := range raw {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// parseWhole accepts integers and integral decimals ("12", "12.0", "1e1").
func parseWhole(value string) (int64, bool) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

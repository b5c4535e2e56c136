package spreadsheet

import (
	"fmt"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

// FromSheetValues converts a Google Sheets value range into a Table. The
// first row is the header.
func FromSheetValues(values [][]interface{}) Table {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, value := range row {
			if value != nil {
				cells[j] = fmt.Sprint(value)
			}
		}
		rows[i] = cells
	}
	return tableFromRows(rows)
}

// ItemValues renders the inventory as a grid with the ItemHeader columns,
// header row first. Absent fields become empty cells.
func ItemValues(items []models.StockRecord) [][]interface{} {
	grid := make([][]interface{}, 0, len(items)+1)
	grid = append(grid, headerValues(ItemHeader))
	for _, item := range items {
		grid = append(grid, []interface{}{
			item.ID, item.Size, models.Deref(item.Company), models.Deref(item.Series),
			item.Quantity, item.LastUpdated.UTC().Format(exportTimeLayout),
		})
	}
	return grid
}

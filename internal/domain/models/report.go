package models

import "time"

// InventorySnapshot is the periodic copy of the inventory archived to MongoDB.
type InventorySnapshot struct {
	TakenAt           time.Time      `bson:"taken_at" json:"taken_at"`
	TotalUnits        int            `bson:"total_units" json:"total_units"`
	DistinctItems     int            `bson:"distinct_items" json:"distinct_items"`
	LowStockThreshold int            `bson:"low_stock_threshold" json:"low_stock_threshold"`
	LowStockCount     int            `bson:"low_stock_count" json:"low_stock_count"`
	Items             []SnapshotItem `bson:"items" json:"items"`
}

// SnapshotItem is the archived form of a StockRecord.
type SnapshotItem struct {
	ID          int64     `bson:"id" json:"id"`
	Size        string    `bson:"tyre_size" json:"tyre_size"`
	Company     *string   `bson:"company,omitempty" json:"company,omitempty"`
	Series      *string   `bson:"series,omitempty" json:"series,omitempty"`
	Quantity    int       `bson:"qty" json:"qty"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// NewInventorySnapshot builds a snapshot document from the current items.
func NewInventorySnapshot(takenAt time.Time, items []StockRecord, threshold int) InventorySnapshot {
	snapshot := InventorySnapshot{
		TakenAt:           takenAt,
		DistinctItems:     len(items),
		LowStockThreshold: threshold,
		Items:             make([]SnapshotItem, 0, len(items)),
	}
	for _, item := range items {
		snapshot.TotalUnits += item.Quantity
		if item.Quantity <= threshold {
			snapshot.LowStockCount++
		}
		snapshot.Items = append(snapshot.Items, SnapshotItem{
			ID:          item.ID,
			Size:        item.Size,
			Company:     item.Company,
			Series:      item.Series,
			Quantity:    item.Quantity,
			LastUpdated: item.LastUpdated,
		})
	}
	return snapshot
}

package models

import (
	"strconv"
	"strings"
	"time"
)

// StockRecord captures the current on-hand quantity of one tyre SKU.
type StockRecord struct {
	ID          int64     `json:"id"`
	Size        string    `json:"tyre_size"`
	Company     *string   `json:"company"`
	Series      *string   `json:"series"`
	Quantity    int       `json:"qty"`
	LastUpdated time.Time `json:"last_updated"`
}

// Signature returns the compound natural key of the record.
func (r StockRecord) Signature() Signature {
	return Signature{Size: r.Size, Company: r.Company, Series: r.Series}
}

// Signature identifies a SKU by size, company and series. Absent company or
// series only match other absent values.
type Signature struct {
	Size    string  `json:"tyre_size"`
	Company *string `json:"company"`
	Series  *string `json:"series"`
}

func (s Signature) String() string {
	parts := []string{s.Size, "-", "-"}
	if s.Company != nil {
		parts[1] = *s.Company
	}
	if s.Series != nil {
		parts[2] = *s.Series
	}
	return strings.Join(parts, " / ")
}

// Stats summarises the inventory table.
type Stats struct {
	TotalUnits    int `json:"total_units"`
	DistinctItems int `json:"distinct_items"`
}

// OptionalString converts a trimmed form value into an optional field;
// blank input is absent.
func OptionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// OptionalID parses an optional identifier; blank input is absent.
func OptionalID(value string) (*int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, NewValidationError("id", "must be a whole number")
	}
	return &id, nil
}

// Deref returns the pointed value or the empty string.
func Deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

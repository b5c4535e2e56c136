package models

// ImportMode selects the reconciliation strategy for a spreadsheet import.
type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"
)

// ParseImportMode accepts the mode names used by the UI and the API.
func ParseImportMode(value string) (ImportMode, error) {
	switch ImportMode(value) {
	case ImportMerge, "":
		return ImportMerge, nil
	case ImportReplace:
		return ImportReplace, nil
	default:
		return "", NewValidationError("mode", "must be merge or replace")
	}
}

// CanonicalRow is one spreadsheet row after column mapping and typing.
type CanonicalRow struct {
	ID       *int64  `json:"id"`
	Size     string  `json:"tyre_size"`
	Company  *string `json:"company"`
	Series   *string `json:"series"`
	Quantity int     `json:"qty"`
	Line     int     `json:"line"`
}

// Signature returns the row's compound natural key.
func (r CanonicalRow) Signature() Signature {
	return Signature{Size: r.Size, Company: r.Company, Series: r.Series}
}

// ImportResult counts the outcome of every reconciled row.
type ImportResult struct {
	Rows              int     `json:"rows"`
	Updated           int     `json:"updated"`
	Inserted          int     `json:"inserted"`
	MergedBySignature int     `json:"merged_by_signature"`
	Created           int     `json:"created"`
	Replaced          int     `json:"replaced"`
	ItemIDs           []int64 `json:"item_ids"`
}

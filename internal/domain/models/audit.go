package models

import "time"

// Reason tags the cause of an audited quantity change.
type Reason string

const (
	ReasonImportUpsert         Reason = "import_upsert"
	ReasonImportMergeSignature Reason = "import_merge_signature"
	ReasonImportNew            Reason = "import_new"
	ReasonReplaceImport        Reason = "replace_import"
	ReasonStockIn              Reason = "stock_in"
	ReasonSale                 Reason = "sale"
	ReasonDamage               Reason = "damage"
	ReasonReturn               Reason = "return"
	ReasonOther                Reason = "other"
)

// RemovalReasons lists the tags a caller may attach to a stock removal.
var RemovalReasons = []Reason{ReasonSale, ReasonDamage, ReasonReturn, ReasonOther}

// IsRemoval reports whether the reason belongs to the removal set.
func (r Reason) IsRemoval() bool {
	for _, candidate := range RemovalReasons {
		if r == candidate {
			return true
		}
	}
	return false
}

// AuditEntry is one immutable quantity change. The descriptive fields are a
// snapshot taken at the time of the change; ItemID is not a strong reference.
type AuditEntry struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Size      string    `json:"tyre_size"`
	Company   *string   `json:"company"`
	Series    *string   `json:"series"`
	Change    int       `json:"change"`
	Reason    Reason    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
	Note      *string   `json:"note"`
}

package dto

import "time"

type MovementFilters struct {
	ProductID     string
	VariantID     string
	BranchID      string
	MovementType  string
	ReferenceType string
	ReferenceID   string
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// AuditResult compares a variant's stored quantity with its ledger.
type AuditResult struct {
	VariantID  string `json:"variant_id"`
	Quantity   int    `json:"quantity"`
	LedgerSum  int    `json:"ledger_sum"`
	Entries    int    `json:"entries"`
	Consistent bool   `json:"consistent"`
}

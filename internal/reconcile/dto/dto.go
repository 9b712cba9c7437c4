package dto

type Mode string

const (
	// ModeReport only describes drift.
	ModeReport Mode = "report"
	// ModeRepair overwrites drifted parents and records an adjustment.
	ModeRepair Mode = "repair"
)

func (m Mode) Valid() bool {
	return m == ModeReport || m == ModeRepair
}

// DriftReport describes one parent whose stored numbers disagree with its units.
type DriftReport struct {
	VariantID         string `json:"variant_id"`
	ProductID         string `json:"product_id"`
	BranchID          string `json:"branch_id"`
	StoredQuantity    int    `json:"stored_quantity"`
	UnitSum           int    `json:"unit_sum"`
	LedgerSum         int    `json:"ledger_sum"`
	Reserved          int    `json:"reserved"`
	QuantityDrift     bool   `json:"quantity_drift"`
	LedgerDrift       bool   `json:"ledger_drift"`
	ReservationExcess bool   `json:"reservation_excess"`
	Repaired          bool   `json:"repaired"`
}

type Summary struct {
	Mode           Mode          `json:"mode"`
	Scanned        int           `json:"scanned"`
	Drifted        int           `json:"drifted"`
	Repaired       int           `json:"repaired"`
	Failed         int           `json:"failed"`
	ProductsSynced int           `json:"products_synced"`
	Reports        []DriftReport `json:"reports"`
}

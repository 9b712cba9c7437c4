package model

import "time"

type MovementType string

const (
	MovementPurchase    MovementType = "purchase"
	MovementSale        MovementType = "sale"
	MovementTransferOut MovementType = "transfer_out"
	MovementTransferIn  MovementType = "transfer_in"
	MovementAdjustment  MovementType = "adjustment"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementTransferOut, MovementTransferIn, MovementAdjustment:
		return true
	}
	return false
}

// Reference types used on ledger rows.
const (
	RefTransfer  = "transfer"
	RefVariant   = "variant"
	RefSale      = "sale"
	RefPurchase  = "purchase"
	RefReconcile = "reconciliation"
	RefManual    = "manual"
)

// StockMovement is immutable once written.
type StockMovement struct {
	ID             string       `db:"id" json:"id"`
	ProductID      string       `db:"product_id" json:"product_id"`
	VariantID      string       `db:"variant_id" json:"variant_id"`
	BranchID       string       `db:"branch_id" json:"branch_id"`
	MovementType   MovementType `db:"movement_type" json:"movement_type"`
	QuantityChange int          `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int          `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int          `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string      `db:"reference_type" json:"reference_type"`
	ReferenceID    *string      `db:"reference_id" json:"reference_id"`
	Notes          string       `db:"notes" json:"notes"`
	CreatedBy      *string      `db:"created_by" json:"created_by"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

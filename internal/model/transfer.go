package model

import (
	"time"

	"gorm.io/datatypes"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferApproved  TransferStatus = "approved"
	TransferInTransit TransferStatus = "in_transit"
	TransferCompleted TransferStatus = "completed"
	TransferRejected  TransferStatus = "rejected"
	TransferCancelled TransferStatus = "cancelled"
)

func (s TransferStatus) Terminal() bool {
	return s == TransferCompleted || s == TransferRejected || s == TransferCancelled
}

func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferApproved, TransferInTransit, TransferCompleted, TransferRejected, TransferCancelled:
		return true
	}
	return false
}

type BranchTransfer struct {
	BaseModel
	EntityID             string                      `db:"entity_id" json:"entity_id"` // source variant
	ProductID            string                      `db:"product_id" json:"product_id"`
	FromBranchID         string                      `db:"from_branch_id" json:"from_branch_id"`
	ToBranchID           string                      `db:"to_branch_id" json:"to_branch_id"`
	Quantity             int                         `db:"quantity" json:"quantity"`
	Status               TransferStatus              `db:"status" json:"status"`
	RequestedBy          *string                     `db:"requested_by" json:"requested_by"`
	ApprovedBy           *string                     `db:"approved_by" json:"approved_by"`
	CompletedBy          *string                     `db:"completed_by" json:"completed_by"`
	Notes                string                      `db:"notes" json:"notes"`
	RejectionReason      *string                     `db:"rejection_reason" json:"rejection_reason"`
	CancelReason         *string                     `db:"cancel_reason" json:"cancel_reason"`
	DestinationVariantID *string                     `db:"destination_variant_id" json:"destination_variant_id"`
	MovedSerials         datatypes.JSONSlice[string] `db:"moved_serials" json:"moved_serials"`
	ApprovedAt           *time.Time                  `db:"approved_at" json:"approved_at"`
	ShippedAt            *time.Time                  `db:"shipped_at" json:"shipped_at"`
	CompletedAt          *time.Time                  `db:"completed_at" json:"completed_at"`
}

// Involves reports whether branchID is the source or destination.
func (t BranchTransfer) Involves(branchID string) bool {
	return t.FromBranchID == branchID || t.ToBranchID == branchID
}

func (t BranchTransfer) Clone() BranchTransfer {
	out := t
	out.MovedSerials = append(datatypes.JSONSlice[string](nil), t.MovedSerials...)
	return out
}

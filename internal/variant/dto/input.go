package dto

import (
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CreateVariantInput struct {
	ProductID       string
	BranchID        string
	Name            string
	SKU             string
	IsShared        bool
	CostPrice       decimal.Decimal
	SellingPrice    decimal.Decimal
	Attributes      datatypes.JSONMap
	InitialQuantity int // standard only; recorded as a purchase
	CreatedBy       string
}

// UnitInput describes one serialized unit received into a parent.
type UnitInput struct {
	Serial       string
	IMEI         string
	SerialNumber string
	MACAddress   string
	Condition    string
	Notes        string
	// Zero prices inherit the parent's.
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	Attributes   datatypes.JSONMap
}

type CreateChildInput struct {
	ParentID      string
	Unit          UnitInput
	ReferenceType string
	ReferenceID   string
	CreatedBy     string
}

type CreateChildrenInput struct {
	ParentID      string
	Units         []UnitInput
	ReferenceType string
	ReferenceID   string
	CreatedBy     string
}

type DeactivateReason string

const (
	ReasonSale      DeactivateReason = "sale"
	ReasonWriteOff  DeactivateReason = "write_off"
	ReasonDataError DeactivateReason = "data_error"
)

func (r DeactivateReason) Valid() bool {
	switch r {
	case ReasonSale, ReasonWriteOff, ReasonDataError:
		return true
	}
	return false
}

type DeactivateInput struct {
	ChildID   string
	Reason    DeactivateReason
	SaleID    string
	Notes     string
	CreatedBy string
}

type DeactivateBySerialInput struct {
	Serial    string
	Reason    DeactivateReason
	SaleID    string
	Notes     string
	CreatedBy string
}

type ReceiveStockInput struct {
	VariantID     string
	Quantity      int
	ReferenceType string
	ReferenceID   string
	Notes         string
	CreatedBy     string
}

type AdjustStockInput struct {
	VariantID     string
	Delta         int
	Reason        string
	ReferenceType string
	ReferenceID   string
	CreatedBy     string
}

// Movement describes the ledger row written when a recompute changes a
// parent's quantity.
type Movement struct {
	Type          model.MovementType
	ReferenceType string
	ReferenceID   string
	Notes         string
	CreatedBy     string
}

package model

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type VariantType string

const (
	VariantStandard  VariantType = "standard"
	VariantParent    VariantType = "parent"
	VariantIMEIChild VariantType = "imei_child"
)

// Attribute keys stored in Variant.Attributes.
const (
	AttrSerial        = "serial"
	AttrIMEI          = "imei"
	AttrSerialNumber  = "serial_number"
	AttrMACAddress    = "mac_address"
	AttrCondition     = "condition"
	AttrSource        = "source"
	AttrNotes         = "notes"
	AttrSoldAt        = "sold_at"
	AttrDeactivatedAt = "deactivated_at"
	AttrReason        = "reason"
	AttrSaleID        = "sale_id"
)

// unitAttributes describe one physical unit rather than the variant as a
// sellable line, so they are ignored when matching variants across branches.
var unitAttributes = map[string]struct{}{
	AttrSerial:        {},
	AttrIMEI:          {},
	AttrSerialNumber:  {},
	AttrMACAddress:    {},
	AttrSource:        {},
	AttrNotes:         {},
	AttrSoldAt:        {},
	AttrDeactivatedAt: {},
	AttrReason:        {},
	AttrSaleID:        {},
}

type Variant struct {
	BaseModel
	ProductID        string            `db:"product_id" json:"product_id"`
	ParentVariantID  *string           `db:"parent_variant_id" json:"parent_variant_id"`
	VariantType      VariantType       `db:"variant_type" json:"variant_type"`
	Name             string            `db:"name" json:"name"`
	SKU              string            `db:"sku" json:"sku"`
	Quantity         int               `db:"quantity" json:"quantity"`
	ReservedQuantity int               `db:"reserved_quantity" json:"reserved_quantity"`
	BranchID         string            `db:"branch_id" json:"branch_id"`
	IsActive         bool              `db:"is_active" json:"is_active"`
	IsShared         bool              `db:"is_shared" json:"is_shared"`
	CostPrice        decimal.Decimal   `db:"cost_price" json:"cost_price"`
	SellingPrice     decimal.Decimal   `db:"selling_price" json:"selling_price"`
	Attributes       datatypes.JSONMap `db:"attributes" json:"attributes"`
}

func (v Variant) OwnerBranchID() *string { return &v.BranchID }
func (v Variant) Shared() bool           { return v.IsShared }

func (v Variant) Available() int {
	return v.Quantity - v.ReservedQuantity
}

func (v Variant) IsRoot() bool {
	return v.VariantType != VariantIMEIChild
}

// Serial returns the serial registered for an imei_child, or "".
func (v Variant) Serial() string {
	if s, ok := v.Attributes[AttrSerial].(string); ok {
		return s
	}
	return ""
}

// Clone returns a copy that shares no mutable state with v.
func (v Variant) Clone() Variant {
	out := v
	out.Attributes = CloneAttributes(v.Attributes)
	if v.ParentVariantID != nil {
		id := *v.ParentVariantID
		out.ParentVariantID = &id
	}
	return out
}

func CloneAttributes(in datatypes.JSONMap) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(in))
	for k, val := range in {
		out[k] = val
	}
	return out
}

// LineAttributes drops the per-unit keys, leaving the attributes that define
// the sellable line (color, storage, condition...).
func LineAttributes(in datatypes.JSONMap) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(in))
	for k, val := range in {
		if _, skip := unitAttributes[k]; skip {
			continue
		}
		out[k] = val
	}
	return out
}

func SameLine(a, b datatypes.JSONMap) bool {
	return reflect.DeepEqual(normalizeJSON(LineAttributes(a)), normalizeJSON(LineAttributes(b)))
}

// normalizeJSON folds numeric types so values decoded from jsonb compare equal
// to values built in memory.
func normalizeJSON(in datatypes.JSONMap) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, val := range in {
		switch n := val.(type) {
		case int:
			out[k] = float64(n)
		case int64:
			out[k] = float64(n)
		case float32:
			out[k] = float64(n)
		default:
			out[k] = val
		}
	}
	return out
}

// StampTime writes t in RFC3339 so it round-trips through jsonb unchanged.
func StampTime(attrs datatypes.JSONMap, key string, t time.Time) {
	attrs[key] = t.UTC().Format(time.RFC3339)
}

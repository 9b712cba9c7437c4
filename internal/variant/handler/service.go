package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const serviceName = "stock.v1.VariantService"

type Variant struct {
	ID               string                 `json:"id"`
	ProductID        string                 `json:"product_id"`
	ParentVariantID  string                 `json:"parent_variant_id,omitempty"`
	VariantType      string                 `json:"variant_type"`
	Name             string                 `json:"name"`
	SKU              string                 `json:"sku"`
	Quantity         int32                  `json:"quantity"`
	ReservedQuantity int32                  `json:"reserved_quantity"`
	Available        int32                  `json:"available"`
	BranchID         string                 `json:"branch_id"`
	IsActive         bool                   `json:"is_active"`
	IsShared         bool                   `json:"is_shared"`
	CostPrice        decimal.Decimal        `json:"cost_price"`
	SellingPrice     decimal.Decimal        `json:"selling_price"`
	Attributes       map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type CreateVariantRequest struct {
	ProductID       string                 `json:"product_id"`
	Name            string                 `json:"name"`
	SKU             string                 `json:"sku"`
	IsShared        bool                   `json:"is_shared"`
	CostPrice       decimal.Decimal        `json:"cost_price"`
	SellingPrice    decimal.Decimal        `json:"selling_price"`
	Attributes      map[string]interface{} `json:"attributes"`
	InitialQuantity int32                  `json:"initial_quantity"`
}

type VariantResponse struct {
	Variant *Variant `json:"variant"`
}

type Unit struct {
	Serial       string                 `json:"serial"`
	IMEI         string                 `json:"imei"`
	SerialNumber string                 `json:"serial_number"`
	MACAddress   string                 `json:"mac_address"`
	Condition    string                 `json:"condition"`
	Notes        string                 `json:"notes"`
	CostPrice    decimal.Decimal        `json:"cost_price"`
	SellingPrice decimal.Decimal        `json:"selling_price"`
	Attributes   map[string]interface{} `json:"attributes"`
}

type CreateChildRequest struct {
	ParentID      string `json:"parent_id"`
	Unit          Unit   `json:"unit"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
}

type CreateChildrenRequest struct {
	ParentID      string `json:"parent_id"`
	Units         []Unit `json:"units"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
}

type UnitResult struct {
	Serial  string   `json:"serial"`
	Variant *Variant `json:"variant,omitempty"`
	Error   string   `json:"error,omitempty"`
	Code    string   `json:"code,omitempty"`
}

type CreateChildrenResponse struct {
	Results   []UnitResult `json:"results"`
	Succeeded int32        `json:"succeeded"`
	Failed    int32        `json:"failed"`
}

type DeactivateRequest struct {
	ChildID string `json:"child_id"`
	Serial  string `json:"serial"` // used when child_id is empty
	Reason  string `json:"reason"`
	SaleID  string `json:"sale_id"`
	Notes   string `json:"notes"`
}

type ReceiveStockRequest struct {
	VariantID     string `json:"variant_id"`
	Quantity      int32  `json:"quantity"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
	Notes         string `json:"notes"`
}

type AdjustStockRequest struct {
	VariantID     string `json:"variant_id"`
	Delta         int32  `json:"delta"`
	Reason        string `json:"reason"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
}

type VariantIDRequest struct {
	ID string `json:"id"`
}

type QuantityResponse struct {
	Quantity int32 `json:"quantity"`
}

type SyncProductRequest struct {
	ProductID string `json:"product_id"`
}

type ListVariantsRequest struct {
	ProductID   string `json:"product_id"`
	OwnerBranch string `json:"owner_branch"`
	RootsOnly   bool   `json:"roots_only"`
	ActiveOnly  bool   `json:"active_only"`
}

type ListChildrenRequest struct {
	ParentID      string `json:"parent_id"`
	AvailableOnly bool   `json:"available_only"`
}

type ListVariantsResponse struct {
	Variants []*Variant `json:"variants"`
}

type LookupSerialRequest struct {
	Serial string `json:"serial"`
}

type VariantServiceServer interface {
	CreateParent(context.Context, *CreateVariantRequest) (*VariantResponse, error)
	CreateStandard(context.Context, *CreateVariantRequest) (*VariantResponse, error)
	CreateChild(context.Context, *CreateChildRequest) (*VariantResponse, error)
	CreateChildren(context.Context, *CreateChildrenRequest) (*CreateChildrenResponse, error)
	Deactivate(context.Context, *DeactivateRequest) (*VariantResponse, error)
	ReceiveStock(context.Context, *ReceiveStockRequest) (*VariantResponse, error)
	AdjustStock(context.Context, *AdjustStockRequest) (*VariantResponse, error)
	Purge(context.Context, *VariantIDRequest) (*rpc.Empty, error)
	RecomputeParent(context.Context, *VariantIDRequest) (*QuantityResponse, error)
	SyncProductAggregate(context.Context, *SyncProductRequest) (*QuantityResponse, error)
	GetVariant(context.Context, *VariantIDRequest) (*VariantResponse, error)
	LookupSerial(context.Context, *LookupSerialRequest) (*VariantResponse, error)
	ListVariants(context.Context, *ListVariantsRequest) (*ListVariantsResponse, error)
	ListChildren(context.Context, *ListChildrenRequest) (*ListVariantsResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*VariantServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.UnaryMethod(serviceName, "CreateParent", (*VariantHandler).CreateParent),
		rpc.UnaryMethod(serviceName, "CreateStandard", (*VariantHandler).CreateStandard),
		rpc.UnaryMethod(serviceName, "CreateChild", (*VariantHandler).CreateChild),
		rpc.UnaryMethod(serviceName, "CreateChildren", (*VariantHandler).CreateChildren),
		rpc.UnaryMethod(serviceName, "Deactivate", (*VariantHandler).Deactivate),
		rpc.UnaryMethod(serviceName, "ReceiveStock", (*VariantHandler).ReceiveStock),
		rpc.UnaryMethod(serviceName, "AdjustStock", (*VariantHandler).AdjustStock),
		rpc.UnaryMethod(serviceName, "Purge", (*VariantHandler).Purge),
		rpc.UnaryMethod(serviceName, "RecomputeParent", (*VariantHandler).RecomputeParent),
		rpc.UnaryMethod(serviceName, "SyncProductAggregate", (*VariantHandler).SyncProductAggregate),
		rpc.UnaryMethod(serviceName, "GetVariant", (*VariantHandler).GetVariant),
		rpc.UnaryMethod(serviceName, "LookupSerial", (*VariantHandler).LookupSerial),
		rpc.UnaryMethod(serviceName, "ListVariants", (*VariantHandler).ListVariants),
		rpc.UnaryMethod(serviceName, "ListChildren", (*VariantHandler).ListChildren),
	},
	Streams: []grpc.StreamDesc{},
}

func mapVariantToMessage(v *model.Variant) *Variant {
	if v == nil {
		return nil
	}
	return &Variant{
		ID:               v.ID,
		ProductID:        v.ProductID,
		ParentVariantID:  model.StringValue(v.ParentVariantID),
		VariantType:      string(v.VariantType),
		Name:             v.Name,
		SKU:              v.SKU,
		Quantity:         int32(v.Quantity),
		ReservedQuantity: int32(v.ReservedQuantity),
		Available:        int32(v.Available()),
		BranchID:         v.BranchID,
		IsActive:         v.IsActive,
		IsShared:         v.IsShared,
		CostPrice:        v.CostPrice,
		SellingPrice:     v.SellingPrice,
		Attributes:       v.Attributes,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

func mapVariants(items []model.Variant) []*Variant {
	out := make([]*Variant, len(items))
	for i := range items {
		out[i] = mapVariantToMessage(&items[i])
	}
	return out
}

func mapUnit(u *Unit) dto.UnitInput {
	return dto.UnitInput{
		Serial:       u.Serial,
		IMEI:         u.IMEI,
		SerialNumber: u.SerialNumber,
		MACAddress:   u.MACAddress,
		Condition:    u.Condition,
		Notes:        u.Notes,
		CostPrice:    u.CostPrice,
		SellingPrice: u.SellingPrice,
		Attributes:   u.Attributes,
	}
}

package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"google.golang.org/grpc"
)

const serviceName = "stock.v1.LedgerService"

type Movement struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	VariantID      string    `json:"variant_id"`
	BranchID       string    `json:"branch_id"`
	MovementType   string    `json:"movement_type"`
	QuantityChange int32     `json:"quantity_change"`
	QuantityBefore int32     `json:"quantity_before"`
	QuantityAfter  int32     `json:"quantity_after"`
	ReferenceType  string    `json:"reference_type,omitempty"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListMovementsRequest struct {
	ProductID     string     `json:"product_id"`
	VariantID     string     `json:"variant_id"`
	MovementType  string     `json:"movement_type"`
	ReferenceType string     `json:"reference_type"`
	ReferenceID   string     `json:"reference_id"`
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
	Page          int32      `json:"page"`
	PageSize      int32      `json:"page_size"`
}

type ListMovementsResponse struct {
	Movements []*Movement `json:"movements"`
	Total     int32       `json:"total"`
	Page      int32       `json:"page"`
	PageSize  int32       `json:"page_size"`
}

type VariantHistoryRequest struct {
	VariantID string `json:"variant_id"`
}

type AuditRequest struct {
	VariantID string `json:"variant_id"`
}

type AuditResponse struct {
	VariantID  string `json:"variant_id"`
	Quantity   int32  `json:"quantity"`
	LedgerSum  int32  `json:"ledger_sum"`
	Entries    int32  `json:"entries"`
	Consistent bool   `json:"consistent"`
}

type LedgerServiceServer interface {
	ListMovements(context.Context, *ListMovementsRequest) (*ListMovementsResponse, error)
	VariantHistory(context.Context, *VariantHistoryRequest) (*ListMovementsResponse, error)
	Audit(context.Context, *AuditRequest) (*AuditResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.UnaryMethod(serviceName, "ListMovements", (*LedgerHandler).ListMovements),
		rpc.UnaryMethod(serviceName, "VariantHistory", (*LedgerHandler).VariantHistory),
		rpc.UnaryMethod(serviceName, "Audit", (*LedgerHandler).Audit),
	},
	Streams: []grpc.StreamDesc{},
}

func mapMovements(items []model.StockMovement) []*Movement {
	out := make([]*Movement, len(items))
	for i := range items {
		m := &items[i]
		out[i] = &Movement{
			ID:             m.ID,
			ProductID:      m.ProductID,
			VariantID:      m.VariantID,
			BranchID:       m.BranchID,
			MovementType:   string(m.MovementType),
			QuantityChange: int32(m.QuantityChange),
			QuantityBefore: int32(m.QuantityBefore),
			QuantityAfter:  int32(m.QuantityAfter),
			ReferenceType:  model.StringValue(m.ReferenceType),
			ReferenceID:    model.StringValue(m.ReferenceID),
			Notes:          m.Notes,
			CreatedBy:      model.StringValue(m.CreatedBy),
			CreatedAt:      m.CreatedAt,
		}
	}
	return out
}

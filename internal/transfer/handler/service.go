package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"google.golang.org/grpc"
)

const serviceName = "stock.v1.TransferService"

type Transfer struct {
	ID                   string     `json:"id"`
	VariantID            string     `json:"variant_id"`
	ProductID            string     `json:"product_id"`
	FromBranchID         string     `json:"from_branch_id"`
	ToBranchID           string     `json:"to_branch_id"`
	Quantity             int32      `json:"quantity"`
	Status               string     `json:"status"`
	RequestedBy          string     `json:"requested_by,omitempty"`
	ApprovedBy           string     `json:"approved_by,omitempty"`
	CompletedBy          string     `json:"completed_by,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	RejectionReason      string     `json:"rejection_reason,omitempty"`
	CancelReason         string     `json:"cancel_reason,omitempty"`
	DestinationVariantID string     `json:"destination_variant_id,omitempty"`
	MovedSerials         []string   `json:"moved_serials,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	ApprovedAt           *time.Time `json:"approved_at,omitempty"`
	ShippedAt            *time.Time `json:"shipped_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

type RequestTransferRequest struct {
	VariantID      string `json:"variant_id"`
	FromBranchID   string `json:"from_branch_id"` // defaults to the calling branch
	ToBranchID     string `json:"to_branch_id"`
	Quantity       int32  `json:"quantity"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"idempotency_key"`
}

type TransferActionRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type TransferResponse struct {
	Transfer *Transfer `json:"transfer"`
}

type GetTransferRequest struct {
	ID string `json:"id"`
}

type ListTransfersRequest struct {
	Direction string `json:"direction"`
	Status    string `json:"status"`
	VariantID string `json:"variant_id"`
	ProductID string `json:"product_id"`
	Page      int32  `json:"page"`
	PageSize  int32  `json:"page_size"`
}

type ListTransfersResponse struct {
	Transfers []*Transfer `json:"transfers"`
	Total     int32       `json:"total"`
	Page      int32       `json:"page"`
	PageSize  int32       `json:"page_size"`
}

type StatsResponse struct {
	ByStatus     map[string]int32 `json:"by_status"`
	OpenIncoming int32            `json:"open_incoming"`
	OpenOutgoing int32            `json:"open_outgoing"`
	Total        int32            `json:"total"`
}

type HistoryRequest struct {
	VariantID string `json:"variant_id"`
}

type TransferServiceServer interface {
	RequestTransfer(context.Context, *RequestTransferRequest) (*TransferResponse, error)
	Approve(context.Context, *TransferActionRequest) (*TransferResponse, error)
	MarkInTransit(context.Context, *TransferActionRequest) (*TransferResponse, error)
	Complete(context.Context, *TransferActionRequest) (*TransferResponse, error)
	Reject(context.Context, *TransferActionRequest) (*TransferResponse, error)
	Cancel(context.Context, *TransferActionRequest) (*TransferResponse, error)
	GetTransfer(context.Context, *GetTransferRequest) (*TransferResponse, error)
	ListTransfers(context.Context, *ListTransfersRequest) (*ListTransfersResponse, error)
	Stats(context.Context, *rpc.Empty) (*StatsResponse, error)
	History(context.Context, *HistoryRequest) (*ListTransfersResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TransferServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.UnaryMethod(serviceName, "RequestTransfer", (*TransferHandler).RequestTransfer),
		rpc.UnaryMethod(serviceName, "Approve", (*TransferHandler).Approve),
		rpc.UnaryMethod(serviceName, "MarkInTransit", (*TransferHandler).MarkInTransit),
		rpc.UnaryMethod(serviceName, "Complete", (*TransferHandler).Complete),
		rpc.UnaryMethod(serviceName, "Reject", (*TransferHandler).Reject),
		rpc.UnaryMethod(serviceName, "Cancel", (*TransferHandler).Cancel),
		rpc.UnaryMethod(serviceName, "GetTransfer", (*TransferHandler).GetTransfer),
		rpc.UnaryMethod(serviceName, "ListTransfers", (*TransferHandler).ListTransfers),
		rpc.UnaryMethod(serviceName, "Stats", (*TransferHandler).Stats),
		rpc.UnaryMethod(serviceName, "History", (*TransferHandler).History),
	},
	Streams: []grpc.StreamDesc{},
}

func mapTransferToMessage(t *model.BranchTransfer) *Transfer {
	return &Transfer{
		ID:                   t.ID,
		VariantID:            t.EntityID,
		ProductID:            t.ProductID,
		FromBranchID:         t.FromBranchID,
		ToBranchID:           t.ToBranchID,
		Quantity:             int32(t.Quantity),
		Status:               string(t.Status),
		RequestedBy:          model.StringValue(t.RequestedBy),
		ApprovedBy:           model.StringValue(t.ApprovedBy),
		CompletedBy:          model.StringValue(t.CompletedBy),
		Notes:                t.Notes,
		RejectionReason:      model.StringValue(t.RejectionReason),
		CancelReason:         model.StringValue(t.CancelReason),
		DestinationVariantID: model.StringValue(t.DestinationVariantID),
		MovedSerials:         []string(t.MovedSerials),
		CreatedAt:            t.CreatedAt,
		ApprovedAt:           t.ApprovedAt,
		ShippedAt:            t.ShippedAt,
		CompletedAt:          t.CompletedAt,
	}
}

func mapTransfers(items []model.BranchTransfer) []*Transfer {
	out := make([]*Transfer, len(items))
	for i := range items {
		out[i] = mapTransferToMessage(&items[i])
	}
	return out
}

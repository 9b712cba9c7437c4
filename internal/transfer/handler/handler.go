package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/transfer"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ TransferServiceServer = (*TransferHandler)(nil)

type TransferHandler struct {
	uc     transfer.UseCase
	logger logger.ZapLogger
}

func NewTransferHandler(uc transfer.UseCase, log logger.ZapLogger) *TransferHandler {
	return &TransferHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *TransferHandler) RequestTransfer(ctx context.Context, req *RequestTransferRequest) (*TransferResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	from := req.FromBranchID
	if from == "" {
		from = branchID
	}
	if from != branchID && req.ToBranchID != branchID {
		return nil, status.Error(codes.PermissionDenied, "calling branch is not part of the transfer")
	}

	t, err := h.uc.RequestTransfer(ctx, &dto.RequestTransferInput{
		VariantID:      req.VariantID,
		FromBranchID:   from,
		ToBranchID:     req.ToBranchID,
		Quantity:       int(req.Quantity),
		RequestedBy:    auth.GetUserID(ctx),
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,

		RequestingBranchID: branchID,
	})
	if err != nil {
		h.logger.Warn("transfer request refused", zap.String("variant_id", req.VariantID), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return &TransferResponse{Transfer: mapTransferToMessage(t)}, nil
}

type action func(context.Context, *dto.ActionInput) (*model.BranchTransfer, error)

// act runs a status transition after checking the caller is one of the
// transfer's branches.
func (h *TransferHandler) act(ctx context.Context, req *TransferActionRequest, fn action) (*TransferResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := h.uc.GetTransfer(ctx, req.ID, branchID); err != nil {
		return nil, rpc.ToStatus(err)
	}
	t, err := fn(ctx, &dto.ActionInput{TransferID: req.ID, Reason: req.Reason, By: auth.GetUserID(ctx)})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &TransferResponse{Transfer: mapTransferToMessage(t)}, nil
}

func (h *TransferHandler) Approve(ctx context.Context, req *TransferActionRequest) (*TransferResponse, error) {
	return h.act(ctx, req, h.uc.Approve)
}

func (h *TransferHandler) MarkInTransit(ctx context.Context, req *TransferActionRequest) (*TransferResponse, error) {
	return h.act(ctx, req, h.uc.MarkInTransit)
}

func (h *TransferHandler) Complete(ctx context.Context, req *TransferActionRequest) (*TransferResponse, error) {
	return h.act(ctx, req, h.uc.Complete)
}

func (h *TransferHandler) Reject(ctx context.Context, req *TransferActionRequest) (*TransferResponse, error) {
	return h.act(ctx, req, h.uc.Reject)
}

func (h *TransferHandler) Cancel(ctx context.Context, req *TransferActionRequest) (*TransferResponse, error) {
	return h.act(ctx, req, h.uc.Cancel)
}

func (h *TransferHandler) GetTransfer(ctx context.Context, req *GetTransferRequest) (*TransferResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	t, err := h.uc.GetTransfer(ctx, req.ID, branchID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &TransferResponse{Transfer: mapTransferToMessage(t)}, nil
}

func (h *TransferHandler) ListTransfers(ctx context.Context, req *ListTransfersRequest) (*ListTransfersResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	page := int(req.Page)
	if page < 1 {
		page = 1
	}
	pageSize := int(req.PageSize)
	if pageSize < 1 {
		pageSize = 20
	}

	items, total, err := h.uc.ListTransfers(ctx, &dto.TransferFilters{
		BranchID:  branchID,
		Direction: dto.Direction(req.Direction),
		Status:    model.TransferStatus(req.Status),
		VariantID: req.VariantID,
		ProductID: req.ProductID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &ListTransfersResponse{
		Transfers: mapTransfers(items),
		Total:     int32(total),
		Page:      int32(page),
		PageSize:  int32(pageSize),
	}, nil
}

func (h *TransferHandler) Stats(ctx context.Context, _ *rpc.Empty) (*StatsResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := h.uc.Stats(ctx, branchID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	out := &StatsResponse{
		ByStatus:     make(map[string]int32, len(stats.ByStatus)),
		OpenIncoming: int32(stats.OpenIncoming),
		OpenOutgoing: int32(stats.OpenOutgoing),
		Total:        int32(stats.Total),
	}
	for s, n := range stats.ByStatus {
		out.ByStatus[string(s)] = int32(n)
	}
	return out, nil
}

// History lists transfers touching a variant, limited to those the calling
// branch took part in.
func (h *TransferHandler) History(ctx context.Context, req *HistoryRequest) (*ListTransfersResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.uc.History(ctx, req.VariantID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	visible := items[:0]
	for _, t := range items {
		if t.Involves(branchID) {
			visible = append(visible, t)
		}
	}
	return &ListTransfersResponse{Transfers: mapTransfers(visible), Total: int32(len(visible))}, nil
}

package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/variant"
)

var _ LedgerServiceServer = (*LedgerHandler)(nil)

// LedgerHandler is read-only; movements are written by the stock operations.
type LedgerHandler struct {
	uc       ledger.UseCase
	variants variant.UseCase
	logger   logger.ZapLogger
}

func NewLedgerHandler(uc ledger.UseCase, variants variant.UseCase, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{
		uc:       uc,
		variants: variants,
		logger:   log,
	}
}

// ListMovements lists the calling branch's movements.
func (h *LedgerHandler) ListMovements(ctx context.Context, req *ListMovementsRequest) (*ListMovementsResponse, error) {
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
		pageSize = 50
	}

	items, total, err := h.uc.ListMovements(ctx, &dto.MovementFilters{
		ProductID:     req.ProductID,
		VariantID:     req.VariantID,
		BranchID:      branchID,
		MovementType:  req.MovementType,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		From:          req.From,
		To:            req.To,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &ListMovementsResponse{
		Movements: mapMovements(items),
		Total:     int32(total),
		Page:      int32(page),
		PageSize:  int32(pageSize),
	}, nil
}

// VariantHistory returns every movement of a variant visible to the caller,
// including rows written while it sat in another branch.
func (h *LedgerHandler) VariantHistory(ctx context.Context, req *VariantHistoryRequest) (*ListMovementsResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := h.variants.GetVariant(ctx, req.VariantID, branchID); err != nil {
		return nil, rpc.ToStatus(err)
	}

	items, err := h.uc.QueryByVariant(ctx, req.VariantID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &ListMovementsResponse{Movements: mapMovements(items), Total: int32(len(items))}, nil
}

func (h *LedgerHandler) Audit(ctx context.Context, req *AuditRequest) (*AuditResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	v, err := h.variants.GetVariant(ctx, req.VariantID, branchID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	res, err := h.uc.Audit(ctx, v)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &AuditResponse{
		VariantID:  res.VariantID,
		Quantity:   int32(res.Quantity),
		LedgerSum:  int32(res.LedgerSum),
		Entries:    int32(res.Entries),
		Consistent: res.Consistent,
	}, nil
}

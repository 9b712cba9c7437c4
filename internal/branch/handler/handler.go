package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/branch"
	"github.com/fekuna/omnipos-stock-service/internal/branch/dto"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"go.uber.org/zap"
)

var _ BranchServiceServer = (*BranchHandler)(nil)

// BranchHandler administers branches and their sharing policy. Calls are not
// branch scoped.
type BranchHandler struct {
	uc     branch.UseCase
	logger logger.ZapLogger
}

func NewBranchHandler(uc branch.UseCase, log logger.ZapLogger) *BranchHandler {
	return &BranchHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *BranchHandler) RegisterBranch(ctx context.Context, req *RegisterBranchRequest) (*BranchResponse, error) {
	b, err := h.uc.RegisterBranch(ctx, &dto.RegisterBranchInput{
		Name:  req.Name,
		Code:  req.Code,
		Mode:  model.IsolationMode(req.DataIsolationMode),
		Flags: mapSharing(req.Sharing),
	})
	if err != nil {
		h.logger.Error("failed to register branch", zap.String("code", req.Code), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return &BranchResponse{Branch: mapBranchToMessage(b)}, nil
}

func (h *BranchHandler) UpdatePolicy(ctx context.Context, req *UpdatePolicyRequest) (*BranchResponse, error) {
	b, err := h.uc.UpdatePolicy(ctx, &dto.UpdatePolicyInput{
		ID:       req.ID,
		Mode:     model.IsolationMode(req.DataIsolationMode),
		Flags:    mapSharing(req.Sharing),
		IsActive: req.IsActive,
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &BranchResponse{Branch: mapBranchToMessage(b)}, nil
}

func (h *BranchHandler) GetBranch(ctx context.Context, req *GetBranchRequest) (*BranchResponse, error) {
	b, err := h.uc.GetBranch(ctx, req.ID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &BranchResponse{Branch: mapBranchToMessage(b)}, nil
}

func (h *BranchHandler) ListBranches(ctx context.Context, req *ListBranchesRequest) (*ListBranchesResponse, error) {
	items, err := h.uc.ListBranches(ctx, req.ActiveOnly)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	out := make([]*Branch, len(items))
	for i := range items {
		out[i] = mapBranchToMessage(&items[i])
	}
	return &ListBranchesResponse{Branches: out}, nil
}

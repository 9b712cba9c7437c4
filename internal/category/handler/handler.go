package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/category"
	"github.com/fekuna/omnipos-stock-service/internal/category/dto"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"go.uber.org/zap"
)

var _ CategoryServiceServer = (*CategoryHandler)(nil)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*CategoryResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	input := &dto.CreateCategoryInput{
		BranchID:    branchID,
		Name:        req.Name,
		Description: req.Description,
		IsShared:    req.IsShared,
		SortOrder:   int(req.SortOrder),
	}
	if req.Global {
		input.BranchID = ""
	}
	if req.ParentID != "" {
		input.ParentID = &req.ParentID
	}

	cat, err := h.uc.CreateCategory(ctx, input)
	if err != nil {
		h.logger.Error("failed to create category", zap.Error(err))
		return nil, rpc.ToStatus(err)
	}

	return &CategoryResponse{Category: mapModelToMessage(cat)}, nil
}

func (h *CategoryHandler) GetCategory(ctx context.Context, req *GetCategoryRequest) (*CategoryResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	cat, err := h.uc.GetCategory(ctx, req.ID, branchID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &CategoryResponse{Category: mapModelToMessage(cat)}, nil
}

func (h *CategoryHandler) ListCategories(ctx context.Context, req *ListCategoriesRequest) (*ListCategoriesResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	filters := &dto.CategoryFilters{
		BranchID:        branchID,
		IncludeChildren: req.IncludeChildren,
		Page:            int(req.Page),
		PageSize:        int(req.PageSize),
	}
	if req.RootsOnly {
		root := ""
		filters.ParentID = &root
	} else if req.ParentID != "" {
		filters.ParentID = &req.ParentID
	}
	if req.ActiveOnly {
		active := true
		filters.IsActive = &active
	}

	cats, count, err := h.uc.ListCategories(ctx, filters)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	out := make([]*Category, len(cats))
	for i := range cats {
		out[i] = mapModelToMessage(&cats[i])
	}

	return &ListCategoriesResponse{
		Categories: out,
		Total:      int32(count),
	}, nil
}

func (h *CategoryHandler) UpdateCategory(ctx context.Context, req *UpdateCategoryRequest) (*CategoryResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	input := &dto.UpdateCategoryInput{
		ID:          req.ID,
		BranchID:    branchID,
		Name:        req.Name,
		Description: req.Description,
		IsShared:    req.IsShared,
		SortOrder:   int(req.SortOrder),
		IsActive:    req.IsActive,
	}
	if req.ParentID != "" {
		input.ParentID = &req.ParentID
	}

	cat, err := h.uc.UpdateCategory(ctx, input)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &CategoryResponse{Category: mapModelToMessage(cat)}, nil
}

func (h *CategoryHandler) DeactivateCategory(ctx context.Context, req *DeactivateCategoryRequest) (*rpc.Empty, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.uc.DeactivateCategory(ctx, req.ID, branchID); err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.Empty{}, nil
}

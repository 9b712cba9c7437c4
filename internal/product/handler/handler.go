package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"go.uber.org/zap"
)

var _ ProductServiceServer = (*ProductHandler)(nil)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	input := &dto.CreateProductInput{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		SupplierID:  req.SupplierID,
		BranchID:    branchID,
		IsShared:    req.IsShared,
	}
	if req.Global {
		input.BranchID = ""
	}

	p, err := h.uc.CreateProduct(ctx, input)
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		return nil, rpc.ToStatus(err)
	}

	return &ProductResponse{Product: mapProductToMessage(p)}, nil
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *GetProductRequest) (*ProductResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	p, err := h.uc.GetProduct(ctx, req.ID, branchID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &ProductResponse{Product: mapProductToMessage(p)}, nil
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	isActive := (*bool)(nil)
	if req.ActiveOnly {
		b := true
		isActive = &b
	}

	filters := &dto.ProductFilters{
		BranchID:   branchID,
		CategoryID: req.CategoryID,
		IsActive:   isActive,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
		Page:       int(req.Page),
		PageSize:   int(req.PageSize),
	}

	return h.list(ctx, filters, req.Page, req.PageSize)
}

func (h *ProductHandler) SearchProducts(ctx context.Context, req *SearchProductsRequest) (*ListProductsResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	active := true
	filters := &dto.ProductFilters{
		BranchID:    branchID,
		IsActive:    &active,
		SearchQuery: req.Query,
		Page:        int(req.Page),
		PageSize:    int(req.PageSize),
	}
	return h.list(ctx, filters, req.Page, req.PageSize)
}

func (h *ProductHandler) list(ctx context.Context, filters *dto.ProductFilters, page, pageSize int32) (*ListProductsResponse, error) {
	products, count, err := h.uc.ListProducts(ctx, filters)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	out := make([]*Product, len(products))
	for i := range products {
		out[i] = mapProductToMessage(&products[i])
	}

	return &ListProductsResponse{
		Products: out,
		Total:    int32(count),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*ProductResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}

	p, err := h.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID:          req.ID,
		BranchID:    branchID,
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		SupplierID:  req.SupplierID,
		IsShared:    req.IsShared,
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &ProductResponse{Product: mapProductToMessage(p)}, nil
}

func (h *ProductHandler) DeactivateProduct(ctx context.Context, req *DeactivateProductRequest) (*rpc.Empty, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.uc.DeactivateProduct(ctx, req.ID, branchID); err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.Empty{}, nil
}


package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/variant"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"go.uber.org/zap"
)

var _ VariantServiceServer = (*VariantHandler)(nil)

type VariantHandler struct {
	uc      variant.UseCase
	serials serial.UseCase
	logger  logger.ZapLogger
}

func NewVariantHandler(uc variant.UseCase, serials serial.UseCase, log logger.ZapLogger) *VariantHandler {
	return &VariantHandler{
		uc:      uc,
		serials: serials,
		logger:  log,
	}
}

func (h *VariantHandler) createInput(ctx context.Context, req *CreateVariantRequest) (*dto.CreateVariantInput, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CreateVariantInput{
		ProductID:       req.ProductID,
		BranchID:        branchID,
		Name:            req.Name,
		SKU:             req.SKU,
		IsShared:        req.IsShared,
		CostPrice:       req.CostPrice,
		SellingPrice:    req.SellingPrice,
		Attributes:      req.Attributes,
		InitialQuantity: int(req.InitialQuantity),
		CreatedBy:       auth.GetUserID(ctx),
	}, nil
}

func (h *VariantHandler) CreateParent(ctx context.Context, req *CreateVariantRequest) (*VariantResponse, error) {
	input, err := h.createInput(ctx, req)
	if err != nil {
		return nil, err
	}
	v, err := h.uc.CreateParent(ctx, input)
	if err != nil {
		h.logger.Error("failed to create parent variant", zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return &VariantResponse{Variant: mapVariantToMessage(v)}, nil
}

func (h *VariantHandler) CreateStandard(ctx context.Context, req *CreateVariantRequest) (*VariantResponse, error) {
	input, err := h.createInput(ctx, req)
	if err != nil {
		return nil, err
	}
	v, err := h.uc.CreateStandard(ctx, input)
	if err != nil {
		h.logger.Error("failed to create variant", zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return &VariantResponse{Variant: mapVariantToMessage(v)}, nil
}

// checkOwned fails unless the requesting branch can see id.
func (h *VariantHandler) checkOwned(ctx context.Context, id string) error {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return err
	}
	if _, err := h.uc.GetVariant(ctx, id, branchID); err != nil {
		return rpc.ToStatus(err)
	}
	return nil
}

func (h *VariantHandler) CreateChild(ctx context.Context, req *CreateChildRequest) (*VariantResponse, error) {
	if err := h.checkOwned(ctx, req.ParentID); err != nil {
		return nil, err
	}
	v, err := h.uc.CreateChild(ctx, &dto.CreateChildInput{
		ParentID:      req.ParentID,
		Unit:          mapUnit(&req.Unit),
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		CreatedBy:     auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &VariantResponse{Variant: mapVariantToMessage(v)}, nil
}

func (h *VariantHandler) CreateChildren(ctx context.Context, req *CreateChildrenRequest) (*CreateChildrenResponse, error) {
	if err := h.checkOwned(ctx, req.ParentID); err != nil {
		return nil, err
	}

	units := make([]dto.UnitInput, len(req.Units))
	for i := range req.Units {
		units[i] = mapUnit(&req.Units[i])
	}

	res, err := h.uc.CreateChildren(ctx, &dto.CreateChildrenInput{
		ParentID:      req.ParentID,
		Units:         units,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		CreatedBy:     auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	out := &CreateChildrenResponse{
		Results:   make([]UnitResult, len(res.Results)),
		Succeeded: int32(res.Succeeded),
		Failed:    int32(res.Failed),
	}
	for i, r := range res.Results {
		out.Results[i] = UnitResult{Serial: r.Serial, Variant: mapVariantToMessage(r.Variant)}
		if r.Err != nil {
			out.Results[i].Error = r.Err.Error()
			out.Results[i].Code = rpc.Code(r.Err).String()
		}
	}
	return out, nil
}

func (h *VariantHandler) Deactivate(ctx context.Context, req *DeactivateRequest) (*VariantResponse, error) {
	childID := req.ChildID
	if childID == "" {
		rec, err := h.serials.Lookup(ctx, req.Serial)
		if err != nil {
			return nil, rpc.ToStatus(err)
		}
		childID = rec.VariantID
	}
	if err := h.checkOwned(ctx, childID); err != nil {
		return nil, err
	}

	v, err := h.uc.Deactivate(ctx, &dto.DeactivateInput{
		ChildID:   childID,
		Reason:    dto.DeactivateReason(req.Reason),
		SaleID:    req.SaleID,
		Notes:     req.Notes,
		CreatedBy: auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &VariantResponse{Variant: mapVariantToMessage(v)}, nil
}

func (h *VariantHandler) ReceiveStock(ctx context.Context, req *ReceiveStockRequest) (*VariantResponse, error) {
	if err := h.checkOwned(ctx, req.VariantID); err != nil {
		return nil, err
	}
	v, err := h.uc.ReceiveStock(ctx, &dto.ReceiveStockInput{
		VariantID:     req.VariantID,
		Quantity:      int(req.Quantity),
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Notes:         req.Notes,
		CreatedBy:     auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &VariantResponse{Variant: mapVariantToMessage(v)}, nil
}

func (h *VariantHandler) AdjustStock(ctx context.Context, req *AdjustStockRequest) (*VariantResponse, error) {
	if err := h.checkOwned(ctx, req.VariantID); err != nil {
		return nil, err
	}
	v, err := h.uc.AdjustStock(ctx, &dto.AdjustStockInput{
		VariantID:     req.VariantID,
		Delta:         int(req.Delta),
		Reason:        req.Reason,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		CreatedBy:     auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &VariantResponse{Variant: mapVariantToMessage(v)}, nil
}

func (h *VariantHandler) Purge(ctx context.Context, req *VariantIDRequest) (*rpc.Empty, error) {
	if err := h.checkOwned(ctx, req.ID); err != nil {
		return nil, err
	}
	if err := h.uc.Purge(ctx, req.ID); err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (h *VariantHandler) RecomputeParent(ctx context.Context, req *VariantIDRequest) (*QuantityResponse, error) {
	if err := h.checkOwned(ctx, req.ID); err != nil {
		return nil, err
	}
	qty, err := h.uc.RecomputeParent(ctx, req.ID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &QuantityResponse{Quantity: int32(qty)}, nil
}

func (h *VariantHandler) SyncProductAggregate(ctx context.Context, req *SyncProductRequest) (*QuantityResponse, error) {
	if _, err := rpc.RequireBranch(ctx); err != nil {
		return nil, err
	}
	total, err := h.uc.SyncProductAggregate(ctx, req.ProductID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &QuantityResponse{Quantity: int32(total)}, nil
}

func (h *VariantHandler) GetVariant(ctx context.Context, req *VariantIDRequest) (*VariantResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	v, err := h.uc.GetVariant(ctx, req.ID, branchID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &VariantResponse{Variant: mapVariantToMessage(v)}, nil
}

func (h *VariantHandler) LookupSerial(ctx context.Context, req *LookupSerialRequest) (*VariantResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := h.serials.Lookup(ctx, req.Serial)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	v, err := h.uc.GetVariant(ctx, rec.VariantID, branchID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &VariantResponse{Variant: mapVariantToMessage(v)}, nil
}

func (h *VariantHandler) ListVariants(ctx context.Context, req *ListVariantsRequest) (*ListVariantsResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.uc.ListVariants(ctx, &dto.VariantFilters{
		BranchID:    branchID,
		ProductID:   req.ProductID,
		OwnerBranch: req.OwnerBranch,
		RootsOnly:   req.RootsOnly,
		ActiveOnly:  req.ActiveOnly,
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &ListVariantsResponse{Variants: mapVariants(items)}, nil
}

func (h *VariantHandler) ListChildren(ctx context.Context, req *ListChildrenRequest) (*ListVariantsResponse, error) {
	branchID, err := rpc.RequireBranch(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.uc.ListChildren(ctx, req.ParentID, branchID, req.AvailableOnly)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &ListVariantsResponse{Variants: mapVariants(items)}, nil
}

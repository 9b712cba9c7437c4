package usecase

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"
)

func (uc *variantUseCase) GetVariant(ctx context.Context, id, branchID string) (*model.Variant, error) {
	v, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperror.NotFound("variant", id)
	}
	if err := uc.resolver.Check(ctx, visibility.Inventory, id, v, branchID); err != nil {
		return nil, err
	}
	return v, nil
}

func (uc *variantUseCase) ListVariants(ctx context.Context, filters *dto.VariantFilters) ([]model.Variant, error) {
	items, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	return visibility.Filter(ctx, uc.resolver, visibility.Inventory, items, filters.BranchID)
}

// ListChildren is visible wherever the parent is.
func (uc *variantUseCase) ListChildren(ctx context.Context, parentID, branchID string, availableOnly bool) ([]model.Variant, error) {
	parent, err := uc.GetVariant(ctx, parentID, branchID)
	if err != nil {
		return nil, err
	}
	if parent.VariantType != model.VariantParent {
		return []model.Variant{}, nil
	}
	return uc.repo.FindChildren(ctx, parentID, availableOnly)
}

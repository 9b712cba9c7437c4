package variant

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
)

type Repository interface {
	Create(ctx context.Context, v *model.Variant) error
	FindByID(ctx context.Context, id string) (*model.Variant, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Variant, error)
	Update(ctx context.Context, v *model.Variant) error
	Delete(ctx context.Context, id string) error

	FindAll(ctx context.Context, filters *dto.VariantFilters) ([]model.Variant, error)
	FindChildren(ctx context.Context, parentID string, availableOnly bool) ([]model.Variant, error)
	SumActiveChildren(ctx context.Context, parentID string) (int, error)
	// PickAvailableChildren locks up to limit active children holding stock,
	// oldest first.
	PickAvailableChildren(ctx context.Context, parentID string, limit int) ([]model.Variant, error)
	// FindCounterparts locks the root variants of productID at branchID that
	// share name and type. Attribute matching is left to the caller.
	FindCounterparts(ctx context.Context, productID, branchID, name string, variantType model.VariantType) ([]model.Variant, error)
	SumRootQuantity(ctx context.Context, productID string) (int, error)
	// FindParentIDs pages through parent variants in id order.
	FindParentIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

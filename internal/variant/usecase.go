package variant

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
)

type UseCase interface {
	CreateParent(ctx context.Context, input *dto.CreateVariantInput) (*model.Variant, error)
	CreateStandard(ctx context.Context, input *dto.CreateVariantInput) (*model.Variant, error)
	CreateChild(ctx context.Context, input *dto.CreateChildInput) (*model.Variant, error)
	CreateChildren(ctx context.Context, input *dto.CreateChildrenInput) (*dto.BulkResult, error)

	Deactivate(ctx context.Context, input *dto.DeactivateInput) (*model.Variant, error)
	DeactivateBySerial(ctx context.Context, input *dto.DeactivateBySerialInput) (*model.Variant, error)
	ReceiveStock(ctx context.Context, input *dto.ReceiveStockInput) (*model.Variant, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Variant, error)
	Purge(ctx context.Context, childID string) error

	// RecomputeParent sets the parent's quantity to the sum of its active
	// children and records any change as an adjustment.
	RecomputeParent(ctx context.Context, parentID string) (int, error)
	// Recompute is RecomputeParent inside the caller's transaction with a
	// caller-chosen ledger row.
	Recompute(ctx context.Context, parentID string, mv *dto.Movement) (*model.Variant, error)
	SyncProductAggregate(ctx context.Context, productID string) (int, error)

	GetVariant(ctx context.Context, id, branchID string) (*model.Variant, error)
	ListVariants(ctx context.Context, filters *dto.VariantFilters) ([]model.Variant, error)
	ListChildren(ctx context.Context, parentID, branchID string, availableOnly bool) ([]model.Variant, error)
}

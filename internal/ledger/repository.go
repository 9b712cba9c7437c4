package ledger

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// Repository is append-only: there is no update or delete.
type Repository interface {
	Insert(ctx context.Context, m *model.StockMovement) error
	FindByVariant(ctx context.Context, variantID string) ([]model.StockMovement, error)
	FindByReference(ctx context.Context, refType, refID string) ([]model.StockMovement, error)
	FindAll(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	// SumByVariant returns the sum of deltas and the number of rows.
	SumByVariant(ctx context.Context, variantID string) (sum int, entries int, err error)
}

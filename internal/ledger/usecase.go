package ledger

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	// Append must run in the transaction that changed the quantity.
	Append(ctx context.Context, m *model.StockMovement) (string, error)
	QueryByVariant(ctx context.Context, variantID string) ([]model.StockMovement, error)
	QueryByReference(ctx context.Context, refType, refID string) ([]model.StockMovement, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	SumByVariant(ctx context.Context, variantID string) (int, error)
	Audit(ctx context.Context, v *model.Variant) (*dto.AuditResult, error)
}

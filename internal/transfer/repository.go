package transfer

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

type Repository interface {
	Create(ctx context.Context, t *model.BranchTransfer) error
	FindByID(ctx context.Context, id string) (*model.BranchTransfer, error)
	// Transition stores t only while the stored status still equals expected.
	// It reports false when another writer moved the transfer first.
	Transition(ctx context.Context, t *model.BranchTransfer, expected model.TransferStatus) (bool, error)
	Update(ctx context.Context, t *model.BranchTransfer) error
	FindAll(ctx context.Context, filters *dto.TransferFilters) ([]model.BranchTransfer, int, error)
	// FindByVariant returns transfers that took stock from or delivered it to variantID.
	FindByVariant(ctx context.Context, variantID string) ([]model.BranchTransfer, error)
	CountByStatus(ctx context.Context, branchID string) ([]dto.StatusCount, error)
}

package usecase

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

// GetTransfer returns the transfer when branchID is one of its two ends.
// An empty branchID skips the check.
func (uc *transferUseCase) GetTransfer(ctx context.Context, id, branchID string) (*model.BranchTransfer, error) {
	t, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperror.NotFound("transfer", id)
	}
	if branchID != "" && !t.Involves(branchID) {
		return nil, apperror.EntityNotVisible("transfer", id, branchID)
	}
	return t, nil
}

func (uc *transferUseCase) ListTransfers(ctx context.Context, filters *dto.TransferFilters) ([]model.BranchTransfer, int, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, apperror.InvalidArgument("unknown transfer status " + string(filters.Status))
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *transferUseCase) Stats(ctx context.Context, branchID string) (*dto.TransferStats, error) {
	rows, err := uc.repo.CountByStatus(ctx, branchID)
	if err != nil {
		return nil, err
	}

	stats := &dto.TransferStats{
		BranchID: branchID,
		ByStatus: map[model.TransferStatus]int{},
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] += row.Count
		stats.Total += row.Count
		if row.Status.Terminal() {
			continue
		}
		if row.Incoming {
			stats.OpenIncoming += row.Count
		} else {
			stats.OpenOutgoing += row.Count
		}
	}
	return stats, nil
}

func (uc *transferUseCase) History(ctx context.Context, variantID string) ([]model.BranchTransfer, error) {
	return uc.repo.FindByVariant(ctx, variantID)
}

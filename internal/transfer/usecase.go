package transfer

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

type UseCase interface {
	RequestTransfer(ctx context.Context, input *dto.RequestTransferInput) (*model.BranchTransfer, error)
	Approve(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error)
	MarkInTransit(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error)
	// Complete moves the stock. Of two concurrent calls exactly one succeeds;
	// the other fails with InvalidState.
	Complete(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error)
	Reject(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error)
	Cancel(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error)

	GetTransfer(ctx context.Context, id, branchID string) (*model.BranchTransfer, error)
	ListTransfers(ctx context.Context, filters *dto.TransferFilters) ([]model.BranchTransfer, int, error)
	Stats(ctx context.Context, branchID string) (*dto.TransferStats, error)
	History(ctx context.Context, variantID string) ([]model.BranchTransfer, error)
}

package reconcile

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/reconcile/dto"
)

type UseCase interface {
	// ReconcileAll sweeps every parent variant, one short transaction each.
	ReconcileAll(ctx context.Context, mode dto.Mode) (*dto.Summary, error)
}

package branch

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/branch/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	RegisterBranch(ctx context.Context, input *dto.RegisterBranchInput) (*model.Branch, error)
	UpdatePolicy(ctx context.Context, input *dto.UpdatePolicyInput) (*model.Branch, error)
	GetBranch(ctx context.Context, id string) (*model.Branch, error)
	ListBranches(ctx context.Context, activeOnly bool) ([]model.Branch, error)

	// Lookup returns nil, nil for an unknown branch. It may serve from cache.
	Lookup(ctx context.Context, id string) (*model.Branch, error)
	// RequireActive fails with NotFound or InvalidArgument.
	RequireActive(ctx context.Context, id string) (*model.Branch, error)
}

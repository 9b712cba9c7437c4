package visibility

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// BranchLookup returns nil, nil for an unknown branch.
type BranchLookup interface {
	Lookup(ctx context.Context, id string) (*model.Branch, error)
}

type Resolver struct {
	branches BranchLookup
}

func NewResolver(branches BranchLookup) *Resolver {
	return &Resolver{branches: branches}
}

func (r *Resolver) IsVisible(ctx context.Context, kind EntityKind, entity Scoped, requestingBranchID string) (bool, error) {
	requesting, err := r.branches.Lookup(ctx, requestingBranchID)
	if err != nil {
		return false, err
	}
	return r.decide(ctx, kind, entity, requesting, map[string]*model.Branch{})
}

// Check is IsVisible returning EntityNotVisible instead of false.
func (r *Resolver) Check(ctx context.Context, kind EntityKind, id string, entity Scoped, requestingBranchID string) error {
	ok, err := r.IsVisible(ctx, kind, entity, requestingBranchID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.EntityNotVisible(string(kind), id, requestingBranchID)
	}
	return nil
}

func (r *Resolver) decide(ctx context.Context, kind EntityKind, entity Scoped, requesting *model.Branch, owners map[string]*model.Branch) (bool, error) {
	owner := entity.OwnerBranchID()
	var owning *model.Branch
	if owner != nil && requesting != nil && *owner != requesting.ID && !entity.Shared() {
		cached, seen := owners[*owner]
		if !seen {
			b, err := r.branches.Lookup(ctx, *owner)
			if err != nil {
				return false, err
			}
			owners[*owner] = b
			cached = b
		}
		owning = cached
	}
	return Decide(kind, owner, entity.Shared(), requesting, owning), nil
}

// Filter keeps the items visible to requestingBranchID. Owner branches are
// looked up once per call.
func Filter[T Scoped](ctx context.Context, r *Resolver, kind EntityKind, items []T, requestingBranchID string) ([]T, error) {
	requesting, err := r.branches.Lookup(ctx, requestingBranchID)
	if err != nil {
		return nil, err
	}
	if requesting == nil || !requesting.IsActive {
		return []T{}, nil
	}

	owners := map[string]*model.Branch{}
	out := make([]T, 0, len(items))
	for _, item := range items {
		ok, err := r.decide(ctx, kind, item, requesting, owners)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

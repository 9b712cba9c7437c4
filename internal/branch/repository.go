package branch

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, b *model.Branch) error
	Update(ctx context.Context, b *model.Branch) error
	FindByID(ctx context.Context, id string) (*model.Branch, error)
	FindByCode(ctx context.Context, code string) (*model.Branch, error)
	FindAll(ctx context.Context, activeOnly bool) ([]model.Branch, error)
}

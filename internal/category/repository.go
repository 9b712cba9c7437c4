package category

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/category/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	// FindAll applies the column filters only; visibility is the caller's job.
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
}

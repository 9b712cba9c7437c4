package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// FindAll applies the column filters only; visibility is the caller's job.
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateTotalQuantity(ctx context.Context, id string, total int) error

	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)
}

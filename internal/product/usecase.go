package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
)

// ListCachePattern matches every cached product list. Writers that change a
// product's total must drop it too.
const ListCachePattern = "products:list:*"

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id, branchID string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	// DeactivateProduct is the only removal path; products are never deleted.
	DeactivateProduct(ctx context.Context, id, branchID string) error
}

package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"google.golang.org/grpc"
)

const serviceName = "stock.v1.ProductService"

type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Description   string    `json:"description,omitempty"`
	CategoryID    string    `json:"category_id,omitempty"`
	SupplierID    string    `json:"supplier_id,omitempty"`
	BranchID      string    `json:"branch_id,omitempty"`
	IsShared      bool      `json:"is_shared"`
	IsActive      bool      `json:"is_active"`
	TotalQuantity int32     `json:"total_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	SupplierID  string `json:"supplier_id"`
	Global      bool   `json:"global"`
	IsShared    bool   `json:"is_shared"`
}

type ProductResponse struct {
	Product *Product `json:"product"`
}

type GetProductRequest struct {
	ID string `json:"id"`
}

type ListProductsRequest struct {
	CategoryID string `json:"category_id"`
	ActiveOnly bool   `json:"active_only"`
	SortBy     string `json:"sort_by"`
	SortOrder  string `json:"sort_order"`
	Page       int32  `json:"page"`
	PageSize   int32  `json:"page_size"`
}

type SearchProductsRequest struct {
	Query    string `json:"query"`
	Page     int32  `json:"page"`
	PageSize int32  `json:"page_size"`
}

type ListProductsResponse struct {
	Products []*Product `json:"products"`
	Total    int32      `json:"total"`
	Page     int32      `json:"page"`
	PageSize int32      `json:"page_size"`
}

type UpdateProductRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	SupplierID  string `json:"supplier_id"`
	IsShared    bool   `json:"is_shared"`
}

type DeactivateProductRequest struct {
	ID string `json:"id"`
}

type ProductServiceServer interface {
	CreateProduct(context.Context, *CreateProductRequest) (*ProductResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*ProductResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	SearchProducts(context.Context, *SearchProductsRequest) (*ListProductsResponse, error)
	UpdateProduct(context.Context, *UpdateProductRequest) (*ProductResponse, error)
	DeactivateProduct(context.Context, *DeactivateProductRequest) (*rpc.Empty, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.UnaryMethod(serviceName, "CreateProduct", (*ProductHandler).CreateProduct),
		rpc.UnaryMethod(serviceName, "GetProduct", (*ProductHandler).GetProduct),
		rpc.UnaryMethod(serviceName, "ListProducts", (*ProductHandler).ListProducts),
		rpc.UnaryMethod(serviceName, "SearchProducts", (*ProductHandler).SearchProducts),
		rpc.UnaryMethod(serviceName, "UpdateProduct", (*ProductHandler).UpdateProduct),
		rpc.UnaryMethod(serviceName, "DeactivateProduct", (*ProductHandler).DeactivateProduct),
	},
	Streams: []grpc.StreamDesc{},
}

func mapProductToMessage(p *model.Product) *Product {
	if p == nil {
		return nil
	}
	return &Product{
		ID:            p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		Description:   model.StringValue(p.Description),
		CategoryID:    model.StringValue(p.CategoryID),
		SupplierID:    model.StringValue(p.SupplierID),
		BranchID:      model.StringValue(p.BranchID),
		IsShared:      p.IsShared,
		IsActive:      p.IsActive,
		TotalQuantity: int32(p.TotalQuantity),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

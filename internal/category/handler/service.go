package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"google.golang.org/grpc"
)

const serviceName = "stock.v1.CategoryService"

type Category struct {
	ID          string      `json:"id"`
	ParentID    string      `json:"parent_id,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	BranchID    string      `json:"branch_id,omitempty"`
	IsShared    bool        `json:"is_shared"`
	SortOrder   int32       `json:"sort_order"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Children    []*Category `json:"children,omitempty"`
}

type CreateCategoryRequest struct {
	ParentID    string `json:"parent_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Global      bool   `json:"global"` // create without an owning branch
	IsShared    bool   `json:"is_shared"`
	SortOrder   int32  `json:"sort_order"`
}

type CategoryResponse struct {
	Category *Category `json:"category"`
}

type GetCategoryRequest struct {
	ID string `json:"id"`
}

type ListCategoriesRequest struct {
	ParentID        string `json:"parent_id"`
	RootsOnly       bool   `json:"roots_only"`
	ActiveOnly      bool   `json:"active_only"`
	IncludeChildren bool   `json:"include_children"`
	Page            int32  `json:"page"`
	PageSize        int32  `json:"page_size"`
}

type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
	Total      int32       `json:"total"`
}

type UpdateCategoryRequest struct {
	ID          string `json:"id"`
	ParentID    string `json:"parent_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsShared    bool   `json:"is_shared"`
	SortOrder   int32  `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

type DeactivateCategoryRequest struct {
	ID string `json:"id"`
}

type CategoryServiceServer interface {
	CreateCategory(context.Context, *CreateCategoryRequest) (*CategoryResponse, error)
	GetCategory(context.Context, *GetCategoryRequest) (*CategoryResponse, error)
	ListCategories(context.Context, *ListCategoriesRequest) (*ListCategoriesResponse, error)
	UpdateCategory(context.Context, *UpdateCategoryRequest) (*CategoryResponse, error)
	DeactivateCategory(context.Context, *DeactivateCategoryRequest) (*rpc.Empty, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CategoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.UnaryMethod(serviceName, "CreateCategory", (*CategoryHandler).CreateCategory),
		rpc.UnaryMethod(serviceName, "GetCategory", (*CategoryHandler).GetCategory),
		rpc.UnaryMethod(serviceName, "ListCategories", (*CategoryHandler).ListCategories),
		rpc.UnaryMethod(serviceName, "UpdateCategory", (*CategoryHandler).UpdateCategory),
		rpc.UnaryMethod(serviceName, "DeactivateCategory", (*CategoryHandler).DeactivateCategory),
	},
	Streams: []grpc.StreamDesc{},
}

func mapModelToMessage(m *model.Category) *Category {
	if m == nil {
		return nil
	}

	// Handle Children if any
	var children []*Category
	if len(m.Children) > 0 {
		children = make([]*Category, len(m.Children))
		for i := range m.Children {
			children[i] = mapModelToMessage(&m.Children[i])
		}
	}

	return &Category{
		ID:          m.ID,
		ParentID:    model.StringValue(m.ParentID),
		Name:        m.Name,
		Description: model.StringValue(m.Description),
		BranchID:    model.StringValue(m.BranchID),
		IsShared:    m.IsShared,
		SortOrder:   int32(m.SortOrder),
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Children:    children,
	}
}

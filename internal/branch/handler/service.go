package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"google.golang.org/grpc"
)

const serviceName = "stock.v1.BranchService"

type Branch struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Code              string    `json:"code"`
	IsActive          bool      `json:"is_active"`
	DataIsolationMode string    `json:"data_isolation_mode"`
	Sharing           Sharing   `json:"sharing"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Sharing struct {
	Products   bool `json:"products"`
	Inventory  bool `json:"inventory"`
	Suppliers  bool `json:"suppliers"`
	Customers  bool `json:"customers"`
	Categories bool `json:"categories"`
	Employees  bool `json:"employees"`
}

type RegisterBranchRequest struct {
	Name              string  `json:"name"`
	Code              string  `json:"code"`
	DataIsolationMode string  `json:"data_isolation_mode"`
	Sharing           Sharing `json:"sharing"`
}

type UpdatePolicyRequest struct {
	ID                string  `json:"id"`
	DataIsolationMode string  `json:"data_isolation_mode"`
	Sharing           Sharing `json:"sharing"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

type BranchResponse struct {
	Branch *Branch `json:"branch"`
}

type GetBranchRequest struct {
	ID string `json:"id"`
}

type ListBranchesRequest struct {
	ActiveOnly bool `json:"active_only"`
}

type ListBranchesResponse struct {
	Branches []*Branch `json:"branches"`
}

type BranchServiceServer interface {
	RegisterBranch(context.Context, *RegisterBranchRequest) (*BranchResponse, error)
	UpdatePolicy(context.Context, *UpdatePolicyRequest) (*BranchResponse, error)
	GetBranch(context.Context, *GetBranchRequest) (*BranchResponse, error)
	ListBranches(context.Context, *ListBranchesRequest) (*ListBranchesResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BranchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.UnaryMethod(serviceName, "RegisterBranch", (*BranchHandler).RegisterBranch),
		rpc.UnaryMethod(serviceName, "UpdatePolicy", (*BranchHandler).UpdatePolicy),
		rpc.UnaryMethod(serviceName, "GetBranch", (*BranchHandler).GetBranch),
		rpc.UnaryMethod(serviceName, "ListBranches", (*BranchHandler).ListBranches),
	},
	Streams: []grpc.StreamDesc{},
}

func mapBranchToMessage(b *model.Branch) *Branch {
	return &Branch{
		ID:                b.ID,
		Name:              b.Name,
		Code:              b.Code,
		IsActive:          b.IsActive,
		DataIsolationMode: string(b.DataIsolationMode),
		Sharing: Sharing{
			Products:   b.ShareProducts,
			Inventory:  b.ShareInventory,
			Suppliers:  b.ShareSuppliers,
			Customers:  b.ShareCustomers,
			Categories: b.ShareCategories,
			Employees:  b.ShareEmployees,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func mapSharing(s Sharing) model.SharingFlags {
	return model.SharingFlags{
		ShareProducts:   s.Products,
		ShareInventory:  s.Inventory,
		ShareSuppliers:  s.Suppliers,
		ShareCustomers:  s.Customers,
		ShareCategories: s.Categories,
		ShareEmployees:  s.Employees,
	}
}

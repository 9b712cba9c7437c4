package dto

type CreateProductInput struct {
	Name        string
	SKU         string
	Description string
	CategoryID  string
	SupplierID  string
	BranchID    string // empty creates a global product
	IsShared    bool
}

type UpdateProductInput struct {
	ID          string
	BranchID    string // requesting branch
	Name        string
	SKU         string
	Description string
	CategoryID  string
	SupplierID  string
	IsShared    bool
}

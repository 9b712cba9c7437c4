package model

type Product struct {
	BaseModel
	Name          string  `db:"name" json:"name"`
	SKU           string  `db:"sku" json:"sku"`
	Description   *string `db:"description" json:"description"`
	CategoryID    *string `db:"category_id" json:"category_id"`
	SupplierID    *string `db:"supplier_id" json:"supplier_id"`
	BranchID      *string `db:"branch_id" json:"branch_id"` // nil means global
	IsShared      bool    `db:"is_shared" json:"is_shared"`
	IsActive      bool    `db:"is_active" json:"is_active"`
	TotalQuantity int     `db:"total_quantity" json:"total_quantity"` // denormalized sum of root variants
}

func (p Product) OwnerBranchID() *string { return p.BranchID }
func (p Product) Shared() bool           { return p.IsShared }

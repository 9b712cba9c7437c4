package dto

type ProductFilters struct {
	BranchID    string // requesting branch; results are visibility filtered
	CategoryID  string
	IsActive    *bool
	SearchQuery string // name or sku
	SortBy      string // name, created_at, total_quantity
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}

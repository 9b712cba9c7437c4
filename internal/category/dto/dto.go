package dto

type CategoryFilters struct {
	BranchID        string  // requesting branch; results are visibility filtered
	ParentID        *string // Nil means ignore, Empty string means root categories
	IsActive        *bool
	IncludeChildren bool
	Page            int
	PageSize        int
}

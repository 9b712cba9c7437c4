package dto

type CreateCategoryInput struct {
	BranchID    string // empty creates a global category
	ParentID    *string
	Name        string
	Description string
	IsShared    bool
	SortOrder   int
}

type UpdateCategoryInput struct {
	ID          string
	BranchID    string // requesting branch
	ParentID    *string
	Name        string
	Description string
	IsShared    bool
	SortOrder   int
	IsActive    bool
}

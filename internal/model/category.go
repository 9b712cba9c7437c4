package model

type Category struct {
	BaseModel
	ParentID    *string    `db:"parent_id" json:"parent_id"` // Nullable
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description"`
	BranchID    *string    `db:"branch_id" json:"branch_id"`
	IsShared    bool       `db:"is_shared" json:"is_shared"`
	SortOrder   int        `db:"sort_order" json:"sort_order"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	Children    []Category `db:"-" json:"children,omitempty"` // For tree structure, not in DB
}

func (c Category) OwnerBranchID() *string { return c.BranchID }
func (c Category) Shared() bool           { return c.IsShared }

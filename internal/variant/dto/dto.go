package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type VariantFilters struct {
	BranchID    string // requesting branch; results are visibility filtered
	ProductID   string
	OwnerBranch string // restrict to variants held by this branch
	RootsOnly   bool
	ActiveOnly  bool
}

type UnitResult struct {
	Serial  string         `json:"serial"`
	Variant *model.Variant `json:"variant,omitempty"`
	Err     error          `json:"-"`
}

// BulkResult reports each unit separately; one failure does not undo the
// others.
type BulkResult struct {
	Results   []UnitResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

package repository

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
)

const variantTable = "variants"

// MemoryRepository stores variants in a memory.DB. Rows are cloned on the way
// in and out so callers never share attribute maps with a snapshot.
// Row locks are implied: memory.DB admits one writer at a time.
type MemoryRepository struct {
	DB *memory.DB
}

func NewMemoryRepository(db *memory.DB) *MemoryRepository {
	return &MemoryRepository{DB: db}
}

func (r *MemoryRepository) Create(ctx context.Context, v *model.Variant) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		tx.Put(variantTable, v.ID, v.Clone())
		return nil
	})
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Variant, error) {
	var out *model.Variant
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		if v, ok := memory.Get[model.Variant](tx, variantTable, id); ok {
			c := v.Clone()
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Variant, error) {
	return r.FindByID(ctx, id)
}

func (r *MemoryRepository) Update(ctx context.Context, v *model.Variant) error {
	return r.Create(ctx, v)
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		tx.Delete(variantTable, id)
		return nil
	})
}

func (r *MemoryRepository) selectWhere(ctx context.Context, keep func(model.Variant) bool) ([]model.Variant, error) {
	var items []model.Variant
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		rows := memory.All(tx, variantTable, keep)
		items = make([]model.Variant, len(rows))
		for i, v := range rows {
			items[i] = v.Clone()
		}
		return nil
	})
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, err
}

func (r *MemoryRepository) FindAll(ctx context.Context, f *dto.VariantFilters) ([]model.Variant, error) {
	return r.selectWhere(ctx, func(v model.Variant) bool {
		if f.ProductID != "" && v.ProductID != f.ProductID {
			return false
		}
		if f.OwnerBranch != "" && v.BranchID != f.OwnerBranch {
			return false
		}
		if f.RootsOnly && !v.IsRoot() {
			return false
		}
		if f.ActiveOnly && !v.IsActive {
			return false
		}
		return true
	})
}

func (r *MemoryRepository) FindChildren(ctx context.Context, parentID string, availableOnly bool) ([]model.Variant, error) {
	return r.selectWhere(ctx, func(v model.Variant) bool {
		if model.StringValue(v.ParentVariantID) != parentID {
			return false
		}
		return !availableOnly || (v.IsActive && v.Quantity > 0)
	})
}

func availableChild(parentID string) func(model.Variant) bool {
	return func(v model.Variant) bool {
		return v.VariantType == model.VariantIMEIChild &&
			model.StringValue(v.ParentVariantID) == parentID &&
			v.IsActive && v.Quantity > 0
	}
}

func (r *MemoryRepository) SumActiveChildren(ctx context.Context, parentID string) (int, error) {
	children, err := r.selectWhere(ctx, availableChild(parentID))
	total := 0
	for _, c := range children {
		total += c.Quantity
	}
	return total, err
}

func (r *MemoryRepository) PickAvailableChildren(ctx context.Context, parentID string, limit int) ([]model.Variant, error) {
	children, err := r.selectWhere(ctx, availableChild(parentID))
	if len(children) > limit {
		children = children[:limit]
	}
	return children, err
}

func (r *MemoryRepository) FindCounterparts(ctx context.Context, productID, branchID, name string, variantType model.VariantType) ([]model.Variant, error) {
	return r.selectWhere(ctx, func(v model.Variant) bool {
		return v.ProductID == productID && v.BranchID == branchID &&
			v.Name == name && v.VariantType == variantType && v.IsActive
	})
}

func (r *MemoryRepository) SumRootQuantity(ctx context.Context, productID string) (int, error) {
	roots, err := r.selectWhere(ctx, func(v model.Variant) bool {
		return v.ProductID == productID && v.IsRoot() && v.IsActive
	})
	total := 0
	for _, v := range roots {
		total += v.Quantity
	}
	return total, err
}

func (r *MemoryRepository) FindParentIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	var ids []string
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		// All is ordered by key, which is the id.
		for _, v := range memory.All(tx, variantTable, func(v model.Variant) bool {
			return v.VariantType == model.VariantParent && v.ID > afterID
		}) {
			if len(ids) == limit {
				break
			}
			ids = append(ids, v.ID)
		}
		return nil
	})
	return ids, err
}

package repository

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/category/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
)

const categoryTable = "categories"

type MemoryRepository struct {
	DB *memory.DB
}

func NewMemoryRepository(db *memory.DB) *MemoryRepository {
	return &MemoryRepository{DB: db}
}

func (r *MemoryRepository) Create(ctx context.Context, c *model.Category) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		row := *c
		row.Children = nil
		tx.Put(categoryTable, c.ID, row)
		return nil
	})
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var out *model.Category
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		if c, ok := memory.Get[model.Category](tx, categoryTable, id); ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, error) {
	var items []model.Category
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		items = memory.All(tx, categoryTable, func(c model.Category) bool {
			if f.ParentID != nil && model.StringValue(c.ParentID) != *f.ParentID {
				return false
			}
			if f.IsActive != nil && c.IsActive != *f.IsActive {
				return false
			}
			return true
		})
		return nil
	})
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].Name < items[j].Name
	})
	return items, err
}

func (r *MemoryRepository) Update(ctx context.Context, c *model.Category) error {
	return r.Create(ctx, c)
}

package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
)

const productTable = "products"

type MemoryRepository struct {
	DB *memory.DB
}

func NewMemoryRepository(db *memory.DB) *MemoryRepository {
	return &MemoryRepository{DB: db}
}

func (r *MemoryRepository) Create(ctx context.Context, p *model.Product) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		tx.Put(productTable, p.ID, *p)
		return nil
	})
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var out *model.Product
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		if p, ok := memory.Get[model.Product](tx, productTable, id); ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, error) {
	search := strings.ToLower(f.SearchQuery)
	var items []model.Product
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		items = memory.All(tx, productTable, func(p model.Product) bool {
			if f.CategoryID != "" && model.StringValue(p.CategoryID) != f.CategoryID {
				return false
			}
			if f.IsActive != nil && p.IsActive != *f.IsActive {
				return false
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.SKU), search) {
				return false
			}
			return true
		})
		return nil
	})

	less := func(a, b model.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch f.SortBy {
	case "name":
		less = func(a, b model.Product) bool { return a.Name < b.Name }
	case "total_quantity":
		less = func(a, b model.Product) bool { return a.TotalQuantity < b.TotalQuantity }
	}
	asc := f.SortBy != "" && strings.ToLower(f.SortOrder) == "asc"
	sort.SliceStable(items, func(i, j int) bool {
		if asc {
			return less(items[i], items[j])
		}
		return less(items[j], items[i])
	})
	return items, err
}

func (r *MemoryRepository) Update(ctx context.Context, p *model.Product) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		current, ok := memory.Get[model.Product](tx, productTable, p.ID)
		if !ok {
			return nil
		}
		// total_quantity is owned by UpdateTotalQuantity
		p.TotalQuantity = current.TotalQuantity
		tx.Put(productTable, p.ID, *p)
		return nil
	})
}

func (r *MemoryRepository) UpdateTotalQuantity(ctx context.Context, id string, total int) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		p, ok := memory.Get[model.Product](tx, productTable, id)
		if !ok {
			return nil
		}
		p.TotalQuantity = total
		p.UpdatedAt = time.Now().UTC()
		tx.Put(productTable, id, p)
		return nil
	})
}

func (r *MemoryRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	unique := true
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		unique = len(memory.All(tx, productTable, func(p model.Product) bool {
			return p.SKU == sku && p.ID != excludeID
		})) == 0
		return nil
	})
	return unique, err
}

package repository

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
)

const branchTable = "branches"

type MemoryRepository struct {
	DB *memory.DB
}

func NewMemoryRepository(db *memory.DB) *MemoryRepository {
	return &MemoryRepository{DB: db}
}

func (r *MemoryRepository) Create(ctx context.Context, b *model.Branch) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		tx.Put(branchTable, b.ID, *b)
		return nil
	})
}

func (r *MemoryRepository) Update(ctx context.Context, b *model.Branch) error {
	return r.Create(ctx, b)
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Branch, error) {
	var out *model.Branch
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		if b, ok := memory.Get[model.Branch](tx, branchTable, id); ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepository) FindByCode(ctx context.Context, code string) (*model.Branch, error) {
	var out *model.Branch
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		found := memory.All(tx, branchTable, func(b model.Branch) bool { return b.Code == code })
		if len(found) > 0 {
			out = &found[0]
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepository) FindAll(ctx context.Context, activeOnly bool) ([]model.Branch, error) {
	var items []model.Branch
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		items = memory.All(tx, branchTable, func(b model.Branch) bool { return !activeOnly || b.IsActive })
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, err
}

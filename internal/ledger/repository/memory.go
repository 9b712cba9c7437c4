package repository

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
)

const movementTable = "stock_movements"

type MemoryRepository struct {
	DB *memory.DB
}

func NewMemoryRepository(db *memory.DB) *MemoryRepository {
	return &MemoryRepository{DB: db}
}

func (r *MemoryRepository) Insert(ctx context.Context, m *model.StockMovement) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		tx.Put(movementTable, m.ID, *m)
		return nil
	})
}

func (r *MemoryRepository) find(ctx context.Context, keep func(model.StockMovement) bool) ([]model.StockMovement, error) {
	var items []model.StockMovement
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		items = memory.All(tx, movementTable, keep)
		return nil
	})
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, err
}

func (r *MemoryRepository) FindByVariant(ctx context.Context, variantID string) ([]model.StockMovement, error) {
	return r.find(ctx, func(m model.StockMovement) bool { return m.VariantID == variantID })
}

func (r *MemoryRepository) FindByReference(ctx context.Context, refType, refID string) ([]model.StockMovement, error) {
	return r.find(ctx, func(m model.StockMovement) bool {
		return model.StringValue(m.ReferenceType) == refType && model.StringValue(m.ReferenceID) == refID
	})
}

func (r *MemoryRepository) FindAll(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	items, err := r.find(ctx, func(m model.StockMovement) bool {
		switch {
		case f.ProductID != "" && m.ProductID != f.ProductID,
			f.VariantID != "" && m.VariantID != f.VariantID,
			f.BranchID != "" && m.BranchID != f.BranchID,
			f.MovementType != "" && string(m.MovementType) != f.MovementType,
			f.ReferenceType != "" && model.StringValue(m.ReferenceType) != f.ReferenceType,
			f.ReferenceID != "" && model.StringValue(m.ReferenceID) != f.ReferenceID,
			f.From != nil && m.CreatedAt.Before(*f.From),
			f.To != nil && !m.CreatedAt.Before(*f.To):
			return false
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	// newest first, like the SQL listing
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return memory.Paginate(items, f.Page, f.PageSize), len(items), nil
}

func (r *MemoryRepository) SumByVariant(ctx context.Context, variantID string) (int, int, error) {
	items, err := r.FindByVariant(ctx, variantID)
	if err != nil {
		return 0, 0, err
	}
	sum := 0
	for _, m := range items {
		sum += m.QuantityChange
	}
	return sum, len(items), nil
}

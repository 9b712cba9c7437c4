package repository

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

const transferTable = "branch_transfers"

type MemoryRepository struct {
	DB *memory.DB
}

func NewMemoryRepository(db *memory.DB) *MemoryRepository {
	return &MemoryRepository{DB: db}
}

func (r *MemoryRepository) Create(ctx context.Context, t *model.BranchTransfer) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		tx.Put(transferTable, t.ID, t.Clone())
		return nil
	})
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.BranchTransfer, error) {
	var out *model.BranchTransfer
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		if t, ok := memory.Get[model.BranchTransfer](tx, transferTable, id); ok {
			c := t.Clone()
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepository) Transition(ctx context.Context, t *model.BranchTransfer, expected model.TransferStatus) (bool, error) {
	var ok bool
	err := r.DB.Write(ctx, func(tx *memory.Tx) error {
		stored, found := memory.Get[model.BranchTransfer](tx, transferTable, t.ID)
		if !found || stored.Status != expected {
			return nil
		}
		tx.Put(transferTable, t.ID, t.Clone())
		ok = true
		return nil
	})
	return ok, err
}

func (r *MemoryRepository) Update(ctx context.Context, t *model.BranchTransfer) error {
	return r.Create(ctx, t)
}

func (r *MemoryRepository) find(ctx context.Context, keep func(model.BranchTransfer) bool) ([]model.BranchTransfer, error) {
	var items []model.BranchTransfer
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		rows := memory.All(tx, transferTable, keep)
		items = make([]model.BranchTransfer, len(rows))
		for i, t := range rows {
			items[i] = t.Clone()
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

func (r *MemoryRepository) FindAll(ctx context.Context, f *dto.TransferFilters) ([]model.BranchTransfer, int, error) {
	items, err := r.find(ctx, func(t model.BranchTransfer) bool {
		if f.BranchID != "" {
			switch f.Direction {
			case dto.DirectionIncoming:
				if t.ToBranchID != f.BranchID {
					return false
				}
			case dto.DirectionOutgoing:
				if t.FromBranchID != f.BranchID {
					return false
				}
			default:
				if !t.Involves(f.BranchID) {
					return false
				}
			}
		}
		switch {
		case f.Status != "" && t.Status != f.Status,
			f.VariantID != "" && t.EntityID != f.VariantID,
			f.ProductID != "" && t.ProductID != f.ProductID:
			return false
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return memory.Paginate(items, f.Page, f.PageSize), len(items), nil
}

func (r *MemoryRepository) FindByVariant(ctx context.Context, variantID string) ([]model.BranchTransfer, error) {
	return r.find(ctx, func(t model.BranchTransfer) bool {
		return t.EntityID == variantID || model.StringValue(t.DestinationVariantID) == variantID
	})
}

func (r *MemoryRepository) CountByStatus(ctx context.Context, branchID string) ([]dto.StatusCount, error) {
	items, err := r.find(ctx, func(t model.BranchTransfer) bool { return t.Involves(branchID) })
	if err != nil {
		return nil, err
	}

	type key struct {
		status   model.TransferStatus
		incoming bool
	}
	counts := map[key]int{}
	var order []key
	for _, t := range items {
		k := key{t.Status, t.ToBranchID == branchID}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	out := make([]dto.StatusCount, len(order))
	for i, k := range order {
		out[i] = dto.StatusCount{Status: k.status, Incoming: k.incoming, Count: counts[k]}
	}
	return out, nil
}

package repository

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
)

const serialTable = "variant_serials"

type MemoryRepository struct {
	DB *memory.DB
}

func NewMemoryRepository(db *memory.DB) *MemoryRepository {
	return &MemoryRepository{DB: db}
}

func (r *MemoryRepository) Insert(ctx context.Context, rec *model.SerialRecord) (*model.SerialRecord, bool, error) {
	var existing *model.SerialRecord
	err := r.DB.Write(ctx, func(tx *memory.Tx) error {
		if held, ok := memory.Get[model.SerialRecord](tx, serialTable, rec.Serial); ok {
			existing = &held
			return nil
		}
		tx.Put(serialTable, rec.Serial, *rec)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return existing, existing == nil, nil
}

func (r *MemoryRepository) FindBySerial(ctx context.Context, serial string) (*model.SerialRecord, error) {
	var out *model.SerialRecord
	err := r.DB.Read(ctx, func(tx *memory.Tx) error {
		if rec, ok := memory.Get[model.SerialRecord](tx, serialTable, serial); ok {
			out = &rec
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepository) Delete(ctx context.Context, serial string) error {
	return r.DB.Write(ctx, func(tx *memory.Tx) error {
		tx.Delete(serialTable, serial)
		return nil
	})
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Insert(ctx context.Context, rec *model.SerialRecord) (*model.SerialRecord, bool, error) {
	// ON CONFLICT keeps the surrounding transaction usable so the holder can
	// be read back for the error.
	query := `
        INSERT INTO variant_serials (serial, variant_id, created_at)
        VALUES (:serial, :variant_id, :created_at)
        ON CONFLICT (serial) DO NOTHING
    `
	res, err := postgres.Executor(ctx, r.DB).NamedExecContext(ctx, query, rec)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if n == 1 {
		return nil, true, nil
	}

	existing, err := r.FindBySerial(ctx, rec.Serial)
	return existing, false, err
}

func (r *PGRepository) FindBySerial(ctx context.Context, serial string) (*model.SerialRecord, error) {
	var rec model.SerialRecord
	err := postgres.Executor(ctx, r.DB).GetContext(ctx, &rec, `SELECT * FROM variant_serials WHERE serial = $1`, serial)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PGRepository) Delete(ctx context.Context, serial string) error {
	_, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, `DELETE FROM variant_serials WHERE serial = $1`, serial)
	return err
}

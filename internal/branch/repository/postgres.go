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

func (r *PGRepository) Create(ctx context.Context, b *model.Branch) error {
	query := `
        INSERT INTO branches (
            id, name, code, is_active, data_isolation_mode,
            share_products, share_inventory, share_suppliers, share_customers,
            share_categories, share_employees, created_at, updated_at
        )
        VALUES (
            :id, :name, :code, :is_active, :data_isolation_mode,
            :share_products, :share_inventory, :share_suppliers, :share_customers,
            :share_categories, :share_employees, :created_at, :updated_at
        )
    `
	_, err := postgres.Executor(ctx, r.DB).NamedExecContext(ctx, query, b)
	return err
}

func (r *PGRepository) Update(ctx context.Context, b *model.Branch) error {
	query := `
        UPDATE branches
        SET name = :name,
            is_active = :is_active,
            data_isolation_mode = :data_isolation_mode,
            share_products = :share_products,
            share_inventory = :share_inventory,
            share_suppliers = :share_suppliers,
            share_customers = :share_customers,
            share_categories = :share_categories,
            share_employees = :share_employees,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := postgres.Executor(ctx, r.DB).NamedExecContext(ctx, query, b)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Branch, error) {
	return r.findOne(ctx, `SELECT * FROM branches WHERE id = $1`, id)
}

func (r *PGRepository) FindByCode(ctx context.Context, code string) (*model.Branch, error) {
	return r.findOne(ctx, `SELECT * FROM branches WHERE code = $1`, code)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.Branch, error) {
	var b model.Branch
	err := postgres.Executor(ctx, r.DB).GetContext(ctx, &b, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGRepository) FindAll(ctx context.Context, activeOnly bool) ([]model.Branch, error) {
	query := `SELECT * FROM branches`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	var items []model.Branch
	err := postgres.Executor(ctx, r.DB).SelectContext(ctx, &items, query)
	return items, err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/postgres"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, v *model.Variant) error {
	query := `
        INSERT INTO variants (
            id, product_id, parent_variant_id, variant_type, name, sku,
            quantity, reserved_quantity, branch_id, is_active, is_shared,
            cost_price, selling_price, attributes, created_at, updated_at
        )
        VALUES (
            :id, :product_id, :parent_variant_id, :variant_type, :name, :sku,
            :quantity, :reserved_quantity, :branch_id, :is_active, :is_shared,
            :cost_price, :selling_price, :attributes, :created_at, :updated_at
        )
    `
	_, err := postgres.Executor(ctx, r.DB).NamedExecContext(ctx, query, v)
	return err
}

func (r *PGRepository) find(ctx context.Context, query string, args ...interface{}) (*model.Variant, error) {
	var v model.Variant
	err := postgres.Executor(ctx, r.DB).GetContext(ctx, &v, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Variant, error) {
	return r.find(ctx, `SELECT * FROM variants WHERE id = $1`, id)
}

func (r *PGRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Variant, error) {
	return r.find(ctx, `SELECT * FROM variants WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGRepository) Update(ctx context.Context, v *model.Variant) error {
	query := `
        UPDATE variants
        SET parent_variant_id = :parent_variant_id,
            variant_type = :variant_type,
            name = :name,
            sku = :sku,
            quantity = :quantity,
            reserved_quantity = :reserved_quantity,
            branch_id = :branch_id,
            is_active = :is_active,
            is_shared = :is_shared,
            cost_price = :cost_price,
            selling_price = :selling_price,
            attributes = :attributes,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := postgres.Executor(ctx, r.DB).NamedExecContext(ctx, query, v)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, `DELETE FROM variants WHERE id = $1`, id)
	return err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.VariantFilters) ([]model.Variant, error) {
	var items []model.Variant

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.OwnerBranch != "" {
		conditions = append(conditions, "branch_id = :owner_branch")
		args["owner_branch"] = f.OwnerBranch
	}
	if f.RootsOnly {
		conditions = append(conditions, "variant_type <> 'imei_child'")
	}
	if f.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT * FROM variants" + whereClause + " ORDER BY created_at, id"

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, err
}

func (r *PGRepository) FindChildren(ctx context.Context, parentID string, availableOnly bool) ([]model.Variant, error) {
	var items []model.Variant
	query := `SELECT * FROM variants WHERE parent_variant_id = $1`
	if availableOnly {
		query += ` AND is_active AND quantity > 0`
	}
	query += ` ORDER BY created_at, id`
	err := postgres.Executor(ctx, r.DB).SelectContext(ctx, &items, query, parentID)
	return items, err
}

func (r *PGRepository) SumActiveChildren(ctx context.Context, parentID string) (int, error) {
	var total int
	err := postgres.Executor(ctx, r.DB).GetContext(ctx, &total, `
        SELECT COALESCE(SUM(quantity), 0)
        FROM variants
        WHERE parent_variant_id = $1
          AND variant_type = 'imei_child'
          AND is_active
          AND quantity > 0
    `, parentID)
	return total, err
}

func (r *PGRepository) PickAvailableChildren(ctx context.Context, parentID string, limit int) ([]model.Variant, error) {
	var items []model.Variant
	err := postgres.Executor(ctx, r.DB).SelectContext(ctx, &items, `
        SELECT * FROM variants
        WHERE parent_variant_id = $1
          AND variant_type = 'imei_child'
          AND is_active
          AND quantity > 0
        ORDER BY created_at, id
        LIMIT $2
        FOR UPDATE
    `, parentID, limit)
	return items, err
}

func (r *PGRepository) FindCounterparts(ctx context.Context, productID, branchID, name string, variantType model.VariantType) ([]model.Variant, error) {
	var items []model.Variant
	err := postgres.Executor(ctx, r.DB).SelectContext(ctx, &items, `
        SELECT * FROM variants
        WHERE product_id = $1
          AND branch_id = $2
          AND name = $3
          AND variant_type = $4
          AND is_active
        ORDER BY created_at, id
        FOR UPDATE
    `, productID, branchID, name, variantType)
	return items, err
}

func (r *PGRepository) SumRootQuantity(ctx context.Context, productID string) (int, error) {
	var total int
	err := postgres.Executor(ctx, r.DB).GetContext(ctx, &total, `
        SELECT COALESCE(SUM(quantity), 0)
        FROM variants
        WHERE product_id = $1
          AND variant_type <> 'imei_child'
          AND is_active
    `, productID)
	return total, err
}

func (r *PGRepository) FindParentIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	var ids []string
	err := postgres.Executor(ctx, r.DB).SelectContext(ctx, &ids, `
        SELECT id FROM variants
        WHERE variant_type = 'parent' AND id::text > $1
        ORDER BY id::text
        LIMIT $2
    `, afterID, limit)
	return ids, err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/postgres"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, t *model.BranchTransfer) error {
	query := `
        INSERT INTO branch_transfers (
            id, entity_id, product_id, from_branch_id, to_branch_id, quantity, status,
            requested_by, notes, moved_serials, created_at, updated_at
        )
        VALUES (
            :id, :entity_id, :product_id, :from_branch_id, :to_branch_id, :quantity, :status,
            :requested_by, :notes, :moved_serials, :created_at, :updated_at
        )
    `
	_, err := postgres.Executor(ctx, r.DB).NamedExecContext(ctx, query, t)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.BranchTransfer, error) {
	var t model.BranchTransfer
	err := postgres.Executor(ctx, r.DB).GetContext(ctx, &t, `SELECT * FROM branch_transfers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

const updateColumns = `
            status = :status,
            approved_by = :approved_by,
            completed_by = :completed_by,
            rejection_reason = :rejection_reason,
            cancel_reason = :cancel_reason,
            destination_variant_id = :destination_variant_id,
            moved_serials = :moved_serials,
            approved_at = :approved_at,
            shipped_at = :shipped_at,
            completed_at = :completed_at,
            updated_at = :updated_at`

func (r *PGRepository) Transition(ctx context.Context, t *model.BranchTransfer, expected model.TransferStatus) (bool, error) {
	query := `UPDATE branch_transfers SET` + updateColumns + `
        WHERE id = :id AND status = :expected_status`

	args := map[string]interface{}{
		"id":                     t.ID,
		"expected_status":        expected,
		"status":                 t.Status,
		"approved_by":            t.ApprovedBy,
		"completed_by":           t.CompletedBy,
		"rejection_reason":       t.RejectionReason,
		"cancel_reason":          t.CancelReason,
		"destination_variant_id": t.DestinationVariantID,
		"moved_serials":          t.MovedSerials,
		"approved_at":            t.ApprovedAt,
		"shipped_at":             t.ShippedAt,
		"completed_at":           t.CompletedAt,
		"updated_at":             t.UpdatedAt,
	}
	res, err := postgres.Executor(ctx, r.DB).NamedExecContext(ctx, query, args)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PGRepository) Update(ctx context.Context, t *model.BranchTransfer) error {
	query := `UPDATE branch_transfers SET` + updateColumns + `
        WHERE id = :id`
	_, err := postgres.Executor(ctx, r.DB).NamedExecContext(ctx, query, t)
	return err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TransferFilters) ([]model.BranchTransfer, int, error) {
	var items []model.BranchTransfer
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.BranchID != "" {
		switch f.Direction {
		case dto.DirectionIncoming:
			conditions = append(conditions, "to_branch_id = :branch_id")
		case dto.DirectionOutgoing:
			conditions = append(conditions, "from_branch_id = :branch_id")
		default:
			conditions = append(conditions, "(from_branch_id = :branch_id OR to_branch_id = :branch_id)")
		}
		args["branch_id"] = f.BranchID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.VariantID != "" {
		conditions = append(conditions, "entity_id = :variant_id")
		args["variant_id"] = f.VariantID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM branch_transfers" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	query := "SELECT * FROM branch_transfers" + whereClause + " ORDER BY created_at DESC, id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) FindByVariant(ctx context.Context, variantID string) ([]model.BranchTransfer, error) {
	var items []model.BranchTransfer
	err := postgres.Executor(ctx, r.DB).SelectContext(ctx, &items, `
        SELECT * FROM branch_transfers
        WHERE entity_id = $1 OR destination_variant_id = $1
        ORDER BY created_at, id
    `, variantID)
	return items, err
}

func (r *PGRepository) CountByStatus(ctx context.Context, branchID string) ([]dto.StatusCount, error) {
	var items []dto.StatusCount
	err := postgres.Executor(ctx, r.DB).SelectContext(ctx, &items, `
        SELECT status, to_branch_id = $1 AS incoming, count(*) AS count
        FROM branch_transfers
        WHERE from_branch_id = $1 OR to_branch_id = $1
        GROUP BY status, to_branch_id = $1
    `, branchID)
	return items, err
}

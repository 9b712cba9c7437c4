package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ledgerUseCase struct {
	repo    ledger.Repository
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

func NewLedgerUseCase(repo ledger.Repository, m *metrics.Metrics, log logger.ZapLogger) ledger.UseCase {
	return &ledgerUseCase{
		repo:    repo,
		metrics: m,
		logger:  log,
	}
}

func (uc *ledgerUseCase) Append(ctx context.Context, m *model.StockMovement) (string, error) {
	if !m.MovementType.Valid() {
		return "", apperror.InvalidArgument(fmt.Sprintf("unknown movement type %q", m.MovementType))
	}
	if m.VariantID == "" || m.ProductID == "" || m.BranchID == "" {
		return "", apperror.InvalidArgument("movement must reference a product, variant and branch")
	}
	if m.QuantityChange == 0 {
		return "", apperror.InvalidArgument("movement must change quantity")
	}
	if m.QuantityAfter != m.QuantityBefore+m.QuantityChange || m.QuantityAfter < 0 {
		return "", apperror.New(apperror.KindInvalidArgument, "movement quantities do not add up", map[string]string{
			"variant_id": m.VariantID,
			"before":     fmt.Sprint(m.QuantityBefore),
			"change":     fmt.Sprint(m.QuantityChange),
			"after":      fmt.Sprint(m.QuantityAfter),
		})
	}

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	if err := uc.repo.Insert(ctx, m); err != nil {
		uc.logger.Error("failed to append stock movement", zap.String("variant_id", m.VariantID), zap.Error(err))
		return "", err
	}

	uc.metrics.RecordMovement(ctx, string(m.MovementType))
	return m.ID, nil
}

func (uc *ledgerUseCase) QueryByVariant(ctx context.Context, variantID string) ([]model.StockMovement, error) {
	return uc.repo.FindByVariant(ctx, variantID)
}

func (uc *ledgerUseCase) QueryByReference(ctx context.Context, refType, refID string) ([]model.StockMovement, error) {
	return uc.repo.FindByReference(ctx, refType, refID)
}

func (uc *ledgerUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *ledgerUseCase) SumByVariant(ctx context.Context, variantID string) (int, error) {
	sum, _, err := uc.repo.SumByVariant(ctx, variantID)
	return sum, err
}

func (uc *ledgerUseCase) Audit(ctx context.Context, v *model.Variant) (*dto.AuditResult, error) {
	sum, entries, err := uc.repo.SumByVariant(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AuditResult{
		VariantID:  v.ID,
		Quantity:   v.Quantity,
		LedgerSum:  sum,
		Entries:    entries,
		Consistent: sum == v.Quantity,
	}, nil
}

package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/reconcile"
	"github.com/fekuna/omnipos-stock-service/internal/reconcile/dto"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/internal/variant"
	variantdto "github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const leaseKey = "lock:reconcile"

type Config struct {
	PageSize int
	LeaseTTL time.Duration
}

type reconcileUseCase struct {
	cfg      Config
	tx       storage.Transactor
	variants variant.Repository
	stock    variant.UseCase
	ledger   ledger.UseCase
	cache    *cache.RedisClient
	metrics  *metrics.Metrics
	logger   logger.ZapLogger
}

// NewReconcileUseCase builds the sweep. Without a cache there is no lease and
// callers must not run two sweeps at once.
func NewReconcileUseCase(
	cfg Config,
	tx storage.Transactor,
	variants variant.Repository,
	stock variant.UseCase,
	ledger ledger.UseCase,
	cache *cache.RedisClient,
	m *metrics.Metrics,
	log logger.ZapLogger,
) reconcile.UseCase {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 10 * time.Minute
	}
	return &reconcileUseCase{
		cfg:      cfg,
		tx:       tx,
		variants: variants,
		stock:    stock,
		ledger:   ledger,
		cache:    cache,
		metrics:  m,
		logger:   log,
	}
}

func (uc *reconcileUseCase) ReconcileAll(ctx context.Context, mode dto.Mode) (*dto.Summary, error) {
	if !mode.Valid() {
		return nil, apperror.InvalidArgument("mode must be report or repair")
	}

	// 1. Lease
	if uc.cache != nil {
		token := uuid.New().String()
		ok, err := uc.cache.AcquireLock(ctx, leaseKey, token, uc.cfg.LeaseTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.ConcurrentModification("a reconciliation sweep is already running")
		}
		defer func() {
			if err := uc.cache.ReleaseLock(context.Background(), leaseKey, token); err != nil {
				uc.logger.Warn("failed to release reconcile lease", zap.Error(err))
			}
		}()
	}

	// 2. Sweep parents page by page
	summary := &dto.Summary{Mode: mode, Reports: []dto.DriftReport{}}
	touched := map[string]struct{}{}
	after := ""
	for {
		ids, err := uc.variants.FindParentIDs(ctx, after, uc.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			summary.Scanned++

			report, err := uc.reconcileOne(ctx, id, mode)
			if err != nil {
				summary.Failed++
				uc.logger.Error("failed to reconcile parent", zap.String("variant_id", id), zap.Error(err))
				continue
			}
			if report == nil {
				uc.metrics.RecordReconcile(ctx, string(mode), false)
				continue
			}

			uc.metrics.RecordReconcile(ctx, string(mode), true)
			summary.Drifted++
			if report.Repaired {
				summary.Repaired++
				touched[report.ProductID] = struct{}{}
			}
			summary.Reports = append(summary.Reports, *report)
		}
		if len(ids) < uc.cfg.PageSize {
			break
		}
		after = ids[len(ids)-1]
	}

	// 3. Product aggregates of everything repaired
	for productID := range touched {
		if _, err := uc.stock.SyncProductAggregate(ctx, productID); err != nil {
			uc.logger.Error("failed to sync product aggregate", zap.String("product_id", productID), zap.Error(err))
			continue
		}
		summary.ProductsSynced++
	}

	uc.logger.Info("reconciliation finished",
		zap.String("mode", string(mode)),
		zap.Int("scanned", summary.Scanned),
		zap.Int("drifted", summary.Drifted),
		zap.Int("repaired", summary.Repaired),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// reconcileOne returns nil when the parent is consistent.
func (uc *reconcileUseCase) reconcileOne(ctx context.Context, id string, mode dto.Mode) (*dto.DriftReport, error) {
	var report *dto.DriftReport
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		parent, err := uc.variants.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		sum, err := uc.variants.SumActiveChildren(ctx, id)
		if err != nil {
			return err
		}
		ledgerSum, err := uc.ledger.SumByVariant(ctx, id)
		if err != nil {
			return err
		}

		r := dto.DriftReport{
			VariantID:         parent.ID,
			ProductID:         parent.ProductID,
			BranchID:          parent.BranchID,
			StoredQuantity:    parent.Quantity,
			UnitSum:           sum,
			LedgerSum:         ledgerSum,
			Reserved:          parent.ReservedQuantity,
			QuantityDrift:     sum != parent.Quantity,
			LedgerDrift:       ledgerSum != parent.Quantity,
			ReservationExcess: parent.ReservedQuantity > sum,
		}
		if !r.QuantityDrift && !r.LedgerDrift && !r.ReservationExcess {
			return nil
		}
		report = &r

		uc.logger.Warn("parent variant drifted",
			zap.String("variant_id", r.VariantID),
			zap.Int("stored", r.StoredQuantity),
			zap.Int("unit_sum", r.UnitSum),
			zap.Int("ledger_sum", r.LedgerSum),
			zap.Int("reserved", r.Reserved),
		)
		if mode != dto.ModeRepair || (!r.QuantityDrift && !r.ReservationExcess) {
			return nil
		}

		// Reservations cannot exceed what the units support.
		if r.ReservationExcess {
			parent.ReservedQuantity = sum
			parent.UpdatedAt = time.Now().UTC()
			if err := uc.variants.Update(ctx, parent); err != nil {
				return err
			}
		}
		if _, err := uc.stock.Recompute(ctx, id, &variantdto.Movement{
			Type:          model.MovementAdjustment,
			ReferenceType: model.RefReconcile,
			ReferenceID:   id,
			Notes:         "reconciliation repair",
			CreatedBy:     "reconciler",
		}); err != nil {
			return err
		}
		report.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"go.uber.org/zap"
)

type serialUseCase struct {
	repo    serial.Repository
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

func NewSerialUseCase(repo serial.Repository, m *metrics.Metrics, log logger.ZapLogger) serial.UseCase {
	return &serialUseCase{
		repo:    repo,
		metrics: m,
		logger:  log,
	}
}

// Register claims s for variantID. The claim is atomic; a concurrent
// claimant for the same serial gets DuplicateSerial naming the holder.
func (uc *serialUseCase) Register(ctx context.Context, s, variantID string) error {
	normalized := serial.Normalize(s)
	if normalized == "" {
		return apperror.InvalidArgument("serial is required")
	}

	existing, inserted, err := uc.repo.Insert(ctx, &model.SerialRecord{
		Serial:    normalized,
		VariantID: variantID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		holder := ""
		if existing != nil {
			holder = existing.VariantID
		}
		uc.metrics.RecordDuplicateSerial(ctx)
		uc.logger.Warn("duplicate serial rejected", zap.String("serial", normalized), zap.String("conflicting_variant", holder))
		return apperror.DuplicateSerial(normalized, holder)
	}
	return nil
}

func (uc *serialUseCase) Lookup(ctx context.Context, s string) (*model.SerialRecord, error) {
	normalized := serial.Normalize(s)
	rec, err := uc.repo.FindBySerial(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperror.New(apperror.KindNotFound, "serial not found", map[string]string{"serial": normalized})
	}
	return rec, nil
}

func (uc *serialUseCase) Exists(ctx context.Context, s string) (bool, error) {
	rec, err := uc.repo.FindBySerial(ctx, serial.Normalize(s))
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Release frees a serial. Only the purge path calls it.
func (uc *serialUseCase) Release(ctx context.Context, s string) error {
	return uc.repo.Delete(ctx, serial.Normalize(s))
}

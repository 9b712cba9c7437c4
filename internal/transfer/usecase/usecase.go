package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/branch"
	"github.com/fekuna/omnipos-stock-service/internal/broker"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/internal/transfer"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
	"github.com/fekuna/omnipos-stock-service/internal/variant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const idempotencyPrefix = "idem:transfer:"

// Event types published after a transition commits.
const (
	EventTransferRequested = "TransferRequested"
	EventTransferApproved  = "TransferApproved"
	EventTransferShipped   = "TransferInTransit"
	EventTransferCompleted = "TransferCompleted"
	EventTransferRejected  = "TransferRejected"
	EventTransferCancelled = "TransferCancelled"
)

type Config struct {
	IdempotencyTTL time.Duration
}

type transferUseCase struct {
	cfg       Config
	tx        storage.Transactor
	repo      transfer.Repository
	variants  variant.Repository
	stock     variant.UseCase
	ledger    ledger.UseCase
	branches  branch.UseCase
	cache     *cache.RedisClient
	publisher broker.Publisher
	metrics   *metrics.Metrics
	logger    logger.ZapLogger
}

// NewTransferUseCase wires the engine. cache and publisher may be nil; without
// a cache idempotency keys are not enforced.
func NewTransferUseCase(
	cfg Config,
	tx storage.Transactor,
	repo transfer.Repository,
	variants variant.Repository,
	stock variant.UseCase,
	ledger ledger.UseCase,
	branches branch.UseCase,
	cache *cache.RedisClient,
	publisher broker.Publisher,
	m *metrics.Metrics,
	log logger.ZapLogger,
) transfer.UseCase {
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &transferUseCase{
		cfg:       cfg,
		tx:        tx,
		repo:      repo,
		variants:  variants,
		stock:     stock,
		ledger:    ledger,
		branches:  branches,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		logger:    log,
	}
}

func (uc *transferUseCase) RequestTransfer(ctx context.Context, input *dto.RequestTransferInput) (*model.BranchTransfer, error) {
	// 1. Shape checks
	if input.FromBranchID == input.ToBranchID {
		return nil, apperror.SameBranchTransfer(input.FromBranchID)
	}
	if input.Quantity <= 0 {
		return nil, apperror.InvalidArgument("transfer quantity must be positive")
	}
	if _, err := uc.branches.RequireActive(ctx, input.FromBranchID); err != nil {
		return nil, err
	}
	if _, err := uc.branches.RequireActive(ctx, input.ToBranchID); err != nil {
		return nil, err
	}
	if input.RequestingBranchID != "" && input.RequestingBranchID != input.FromBranchID {
		if _, err := uc.stock.GetVariant(ctx, input.VariantID, input.RequestingBranchID); err != nil {
			return nil, err
		}
	}

	// 2. Idempotency key
	if input.IdempotencyKey != "" && uc.cache != nil {
		fresh, err := uc.cache.SetNX(ctx, idempotencyPrefix+input.IdempotencyKey, uc.cfg.IdempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, apperror.DuplicateRequest(input.IdempotencyKey)
		}
	}

	// 3. Reserve under the variant's row lock
	var t *model.BranchTransfer
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := uc.variants.FindByIDForUpdate(ctx, input.VariantID)
		if err != nil {
			return err
		}
		if v == nil {
			return apperror.NotFound("variant", input.VariantID)
		}
		if v.BranchID != input.FromBranchID {
			return apperror.New(apperror.KindInvalidArgument, "variant is not held by the source branch", map[string]string{
				"variant_id": v.ID,
				"branch_id":  v.BranchID,
			})
		}
		if v.VariantType == model.VariantIMEIChild {
			return apperror.New(apperror.KindInvalidArgument, "serialized units move with their parent", map[string]string{
				"variant_id": v.ID,
			})
		}
		if !v.IsActive {
			return apperror.New(apperror.KindInvalidArgument, "variant is inactive", map[string]string{
				"variant_id": v.ID,
			})
		}
		if v.Available() < input.Quantity {
			return apperror.InsufficientStock(v.ID, v.Quantity, v.ReservedQuantity, input.Quantity)
		}

		now := time.Now().UTC()
		v.ReservedQuantity += input.Quantity
		v.UpdatedAt = now
		if err := uc.variants.Update(ctx, v); err != nil {
			return err
		}

		t = &model.BranchTransfer{
			BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			EntityID:     v.ID,
			ProductID:    v.ProductID,
			FromBranchID: input.FromBranchID,
			ToBranchID:   input.ToBranchID,
			Quantity:     input.Quantity,
			Status:       model.TransferPending,
			RequestedBy:  model.StringPtr(input.RequestedBy),
			Notes:        input.Notes,
		}
		return uc.repo.Create(ctx, t)
	})
	if err != nil {
		if input.IdempotencyKey != "" && uc.cache != nil {
			if derr := uc.cache.Delete(ctx, idempotencyPrefix+input.IdempotencyKey); derr != nil {
				uc.logger.Warn("failed to release idempotency key", zap.String("key", input.IdempotencyKey), zap.Error(derr))
			}
		}
		if apperror.IsRetryable(err) {
			uc.metrics.RecordConflict(ctx, "request_transfer")
		}
		return nil, err
	}

	uc.metrics.RecordTransfer(ctx, string(t.Status))
	uc.publish(ctx, EventTransferRequested, t)
	uc.logger.Info("transfer requested",
		zap.String("transfer_id", t.ID),
		zap.String("variant_id", t.EntityID),
		zap.String("from_branch_id", t.FromBranchID),
		zap.String("to_branch_id", t.ToBranchID),
		zap.Int("quantity", t.Quantity),
	)
	return t, nil
}

func (uc *transferUseCase) Approve(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error) {
	return uc.transition(ctx, input.TransferID, "approve", EventTransferApproved,
		[]model.TransferStatus{model.TransferPending},
		func(t *model.BranchTransfer, now time.Time) {
			t.Status = model.TransferApproved
			t.ApprovedBy = model.StringPtr(input.By)
			t.ApprovedAt = &now
		}, nil)
}

func (uc *transferUseCase) MarkInTransit(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error) {
	return uc.transition(ctx, input.TransferID, "ship", EventTransferShipped,
		[]model.TransferStatus{model.TransferApproved},
		func(t *model.BranchTransfer, now time.Time) {
			t.Status = model.TransferInTransit
			t.ShippedAt = &now
		}, nil)
}

func (uc *transferUseCase) Reject(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error) {
	return uc.transition(ctx, input.TransferID, "reject", EventTransferRejected,
		[]model.TransferStatus{model.TransferPending},
		func(t *model.BranchTransfer, now time.Time) {
			t.Status = model.TransferRejected
			t.RejectionReason = model.StringPtr(input.Reason)
		}, uc.releaseReservation)
}

func (uc *transferUseCase) Cancel(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error) {
	return uc.transition(ctx, input.TransferID, "cancel", EventTransferCancelled,
		[]model.TransferStatus{model.TransferPending, model.TransferApproved, model.TransferInTransit},
		func(t *model.BranchTransfer, now time.Time) {
			t.Status = model.TransferCancelled
			t.CancelReason = model.StringPtr(input.Reason)
		}, uc.releaseReservation)
}

func (uc *transferUseCase) Complete(ctx context.Context, input *dto.ActionInput) (*model.BranchTransfer, error) {
	return uc.transition(ctx, input.TransferID, "complete", EventTransferCompleted,
		[]model.TransferStatus{model.TransferApproved, model.TransferInTransit},
		func(t *model.BranchTransfer, now time.Time) {
			t.Status = model.TransferCompleted
			t.CompletedBy = model.StringPtr(input.By)
			t.CompletedAt = &now
		},
		func(ctx context.Context, t *model.BranchTransfer) error {
			return uc.moveStock(ctx, t, input.By)
		})
}

type (
	setStatus func(t *model.BranchTransfer, now time.Time)
	effect    func(ctx context.Context, t *model.BranchTransfer) error
)

// transition compare-and-sets the status and applies effect in the same
// transaction. A ConcurrentModification is retried once against fresh state.
func (uc *transferUseCase) transition(ctx context.Context, id, action, event string, from []model.TransferStatus, set setStatus, apply effect) (*model.BranchTransfer, error) {
	var t *model.BranchTransfer
	attempt := func() error {
		return uc.tx.WithinTx(ctx, func(ctx context.Context) error {
			current, err := uc.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if current == nil {
				return apperror.NotFound("transfer", id)
			}
			if !statusIn(current.Status, from) {
				return apperror.InvalidState("transfer", id, string(current.Status), action)
			}

			expected := current.Status
			now := time.Now().UTC()
			next := current.Clone()
			set(&next, now)
			next.UpdatedAt = now

			ok, err := uc.repo.Transition(ctx, &next, expected)
			if err != nil {
				return err
			}
			if !ok {
				latest, err := uc.repo.FindByID(ctx, id)
				if err != nil {
					return err
				}
				state := "unknown"
				if latest != nil {
					state = string(latest.Status)
				}
				return apperror.InvalidState("transfer", id, state, action)
			}

			if apply != nil {
				if err := apply(ctx, &next); err != nil {
					return err
				}
			}
			t = &next
			return nil
		})
	}

	err := attempt()
	if apperror.IsRetryable(err) {
		uc.metrics.RecordConflict(ctx, action+"_transfer")
		uc.logger.Warn("transfer transition conflicted, retrying",
			zap.String("transfer_id", id),
			zap.String("action", action),
			zap.Error(err),
		)
		err = attempt()
	}
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordTransfer(ctx, string(t.Status))
	uc.publish(ctx, event, t)
	uc.logger.Info("transfer "+string(t.Status),
		zap.String("transfer_id", t.ID),
		zap.String("variant_id", t.EntityID),
	)
	return t, nil
}

func statusIn(s model.TransferStatus, set []model.TransferStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

// releaseReservation returns the held quantity to the source variant.
func (uc *transferUseCase) releaseReservation(ctx context.Context, t *model.BranchTransfer) error {
	v, err := uc.variants.FindByIDForUpdate(ctx, t.EntityID)
	if err != nil {
		return err
	}
	if v == nil {
		return apperror.NotFound("variant", t.EntityID)
	}

	release := t.Quantity
	if v.ReservedQuantity < release {
		uc.logger.Warn("reservation below transfer quantity",
			zap.String("transfer_id", t.ID),
			zap.String("variant_id", v.ID),
			zap.Int("reserved", v.ReservedQuantity),
			zap.Int("quantity", t.Quantity),
		)
		release = v.ReservedQuantity
	}
	v.ReservedQuantity -= release
	v.UpdatedAt = time.Now().UTC()
	return uc.variants.Update(ctx, v)
}

func (uc *transferUseCase) publish(ctx context.Context, eventType string, t *model.BranchTransfer) {
	if uc.publisher == nil {
		return
	}
	payload, err := json.Marshal(t)
	if err != nil {
		uc.logger.Error("failed to encode transfer event", zap.String("transfer_id", t.ID), zap.Error(err))
		return
	}
	event := broker.Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, t.ID, event); err != nil {
		uc.logger.Warn("failed to publish transfer event",
			zap.String("transfer_id", t.ID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

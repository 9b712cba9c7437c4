package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"go.uber.org/zap"
)

// RecomputeParent is the explicit repair path: a reservation above the unit
// sum is clamped to it before the quantity is rewritten.
func (uc *variantUseCase) RecomputeParent(ctx context.Context, parentID string) (int, error) {
	var quantity int
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.clampReservation(ctx, parentID); err != nil {
			return err
		}
		parent, err := uc.Recompute(ctx, parentID, &dto.Movement{
			Type:          model.MovementAdjustment,
			ReferenceType: model.RefVariant,
			ReferenceID:   parentID,
			Notes:         "recomputed from active units",
		})
		if err != nil {
			return err
		}
		quantity = parent.Quantity
		_, err = uc.syncProduct(ctx, parent.ProductID)
		return err
	})
	return quantity, err
}

func (uc *variantUseCase) clampReservation(ctx context.Context, parentID string) error {
	parent, err := uc.repo.FindByIDForUpdate(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil || parent.VariantType != model.VariantParent {
		return nil
	}
	sum, err := uc.repo.SumActiveChildren(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.ReservedQuantity <= sum {
		return nil
	}

	uc.logger.Warn("clamping reservation to active units",
		zap.String("variant_id", parentID),
		zap.Int("reserved", parent.ReservedQuantity),
		zap.Int("units", sum),
	)
	parent.ReservedQuantity = sum
	parent.UpdatedAt = time.Now().UTC()
	return uc.repo.Update(ctx, parent)
}

// Recompute refuses with InsufficientStock when the reservation exceeds the
// unit sum; RecomputeParent clamps first.
func (uc *variantUseCase) Recompute(ctx context.Context, parentID string, mv *dto.Movement) (*model.Variant, error) {
	parent, err := uc.repo.FindByIDForUpdate(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, apperror.NotFound("variant", parentID)
	}
	if parent.VariantType != model.VariantParent {
		return nil, apperror.New(apperror.KindInvalidArgument, "only parent variants aggregate units", map[string]string{
			"variant_id":   parentID,
			"variant_type": string(parent.VariantType),
		})
	}

	sum, err := uc.repo.SumActiveChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if sum == parent.Quantity {
		return parent, nil
	}
	if parent.ReservedQuantity > sum {
		return nil, apperror.New(apperror.KindInsufficientStock, "units would fall below the reserved quantity", map[string]string{
			"variant_id": parentID,
			"quantity":   fmt.Sprint(sum),
			"reserved":   fmt.Sprint(parent.ReservedQuantity),
		})
	}

	before := parent.Quantity
	parent.Quantity = sum
	parent.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, parent); err != nil {
		return nil, err
	}
	if err := uc.record(ctx, parent, mv.Type, before, sum, mv.ReferenceType, mv.ReferenceID, mv.Notes, mv.CreatedBy); err != nil {
		return nil, err
	}
	return parent, nil
}

func (uc *variantUseCase) SyncProductAggregate(ctx context.Context, productID string) (int, error) {
	var total int
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		total, err = uc.syncProduct(ctx, productID)
		return err
	})
	return total, err
}

// syncProduct stores the sum of the product's active root variants across
// every branch. Children are never counted; their parent already is.
func (uc *variantUseCase) syncProduct(ctx context.Context, productID string) (int, error) {
	total, err := uc.repo.SumRootQuantity(ctx, productID)
	if err != nil {
		return 0, err
	}
	if err := uc.products.UpdateTotalQuantity(ctx, productID, total); err != nil {
		return 0, err
	}
	uc.invalidateProductLists(ctx)
	return total, nil
}

// invalidateProductLists runs before commit, so a list read in between can
// hold the old total until its TTL.
func (uc *variantUseCase) invalidateProductLists(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, product.ListCachePattern); err != nil {
		uc.logger.Warn("product list cache invalidation failed", zap.Error(err))
	}
}

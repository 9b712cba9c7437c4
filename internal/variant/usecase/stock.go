package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"go.uber.org/zap"
)

func (uc *variantUseCase) Deactivate(ctx context.Context, input *dto.DeactivateInput) (*model.Variant, error) {
	if !input.Reason.Valid() {
		return nil, apperror.InvalidArgument(fmt.Sprintf("unknown deactivation reason %q", input.Reason))
	}

	var child *model.Variant
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Parent before child, the same order CreateChild locks in.
		peek, err := uc.repo.FindByID(ctx, input.ChildID)
		if err != nil {
			return err
		}
		if peek == nil {
			return apperror.NotFound("variant", input.ChildID)
		}
		if peek.VariantType != model.VariantIMEIChild || peek.ParentVariantID == nil {
			return apperror.New(apperror.KindInvalidArgument, "only serialized units can be deactivated", map[string]string{
				"variant_id": peek.ID,
			})
		}
		parent, err := uc.repo.FindByIDForUpdate(ctx, *peek.ParentVariantID)
		if err != nil {
			return err
		}
		child, err = uc.repo.FindByIDForUpdate(ctx, input.ChildID)
		if err != nil {
			return err
		}
		if child == nil {
			return apperror.NotFound("variant", input.ChildID)
		}
		if !child.IsActive {
			return apperror.InvalidState("variant", child.ID, "inactive", "deactivate")
		}
		if parent != nil && parent.Quantity-child.Quantity < parent.ReservedQuantity {
			return apperror.InsufficientStock(parent.ID, parent.Quantity, parent.ReservedQuantity, child.Quantity)
		}

		now := time.Now().UTC()
		if child.Attributes == nil {
			child.Attributes = model.CloneAttributes(nil)
		}
		mt, refType, refID := model.MovementAdjustment, model.RefManual, ""
		if input.Reason == dto.ReasonSale {
			model.StampTime(child.Attributes, model.AttrSoldAt, now)
			mt, refType, refID = model.MovementSale, model.RefSale, input.SaleID
		} else {
			model.StampTime(child.Attributes, model.AttrDeactivatedAt, now)
		}
		child.Attributes[model.AttrReason] = string(input.Reason)
		if input.SaleID != "" {
			child.Attributes[model.AttrSaleID] = input.SaleID
		}

		before := child.Quantity
		child.Quantity = 0
		child.IsActive = false
		child.UpdatedAt = now
		if err := uc.repo.Update(ctx, child); err != nil {
			return err
		}

		notes := input.Notes
		if notes == "" {
			notes = "unit " + child.Serial() + " " + string(input.Reason)
		}
		if err := uc.record(ctx, child, mt, before, 0, refType, refID, notes, input.CreatedBy); err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		if _, err := uc.Recompute(ctx, parent.ID, &dto.Movement{
			Type:          mt,
			ReferenceType: model.RefVariant,
			ReferenceID:   child.ID,
			Notes:         notes,
			CreatedBy:     input.CreatedBy,
		}); err != nil {
			return err
		}
		_, err = uc.syncProduct(ctx, child.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("serialized unit deactivated",
		zap.String("variant_id", child.ID),
		zap.String("serial", child.Serial()),
		zap.String("reason", string(input.Reason)),
	)
	return child, nil
}

func (uc *variantUseCase) DeactivateBySerial(ctx context.Context, input *dto.DeactivateBySerialInput) (*model.Variant, error) {
	rec, err := uc.serials.Lookup(ctx, input.Serial)
	if err != nil {
		return nil, err
	}
	return uc.Deactivate(ctx, &dto.DeactivateInput{
		ChildID:   rec.VariantID,
		Reason:    input.Reason,
		SaleID:    input.SaleID,
		Notes:     input.Notes,
		CreatedBy: input.CreatedBy,
	})
}

// lockStandard loads a standard variant for a quantity change.
func (uc *variantUseCase) lockStandard(ctx context.Context, id, action string) (*model.Variant, error) {
	v, err := uc.repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperror.NotFound("variant", id)
	}
	if v.VariantType != model.VariantStandard {
		return nil, apperror.New(apperror.KindInvalidArgument, "serialized stock changes one unit at a time", map[string]string{
			"variant_id":   v.ID,
			"variant_type": string(v.VariantType),
		})
	}
	if !v.IsActive {
		return nil, apperror.InvalidState("variant", v.ID, "inactive", action)
	}
	return v, nil
}

func (uc *variantUseCase) ReceiveStock(ctx context.Context, input *dto.ReceiveStockInput) (*model.Variant, error) {
	if input.Quantity <= 0 {
		return nil, apperror.InvalidArgument("received quantity must be positive")
	}

	var v *model.Variant
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		v, err = uc.lockStandard(ctx, input.VariantID, "receive stock into")
		if err != nil {
			return err
		}

		before := v.Quantity
		v.Quantity += input.Quantity
		v.UpdatedAt = time.Now().UTC()
		if err := uc.repo.Update(ctx, v); err != nil {
			return err
		}

		refType := input.ReferenceType
		if refType == "" {
			refType = model.RefPurchase
		}
		if err := uc.record(ctx, v, model.MovementPurchase, before, v.Quantity, refType, input.ReferenceID, input.Notes, input.CreatedBy); err != nil {
			return err
		}
		_, err = uc.syncProduct(ctx, v.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (uc *variantUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Variant, error) {
	if input.Delta == 0 {
		return nil, apperror.InvalidArgument("adjustment must change quantity")
	}

	var v *model.Variant
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		v, err = uc.lockStandard(ctx, input.VariantID, "adjust")
		if err != nil {
			return err
		}

		before := v.Quantity
		after := before + input.Delta
		if after < 0 || after < v.ReservedQuantity {
			return apperror.InsufficientStock(v.ID, v.Quantity, v.ReservedQuantity, -input.Delta)
		}
		v.Quantity = after
		v.UpdatedAt = time.Now().UTC()
		if err := uc.repo.Update(ctx, v); err != nil {
			return err
		}

		mt := model.MovementAdjustment
		refType := input.ReferenceType
		switch {
		case refType == model.RefSale && input.Delta < 0:
			mt = model.MovementSale
		case refType == "":
			refType = model.RefManual
		}
		if err := uc.record(ctx, v, mt, before, after, refType, input.ReferenceID, input.Reason, input.CreatedBy); err != nil {
			return err
		}
		_, err = uc.syncProduct(ctx, v.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock adjusted",
		zap.String("variant_id", v.ID),
		zap.Int("delta", input.Delta),
		zap.String("reason", input.Reason),
	)
	return v, nil
}

// Purge hard-deletes a deactivated unit and frees its serial. Ledger rows
// that mention it stay.
func (uc *variantUseCase) Purge(ctx context.Context, childID string) error {
	var s string
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		child, err := uc.repo.FindByIDForUpdate(ctx, childID)
		if err != nil {
			return err
		}
		if child == nil {
			return apperror.NotFound("variant", childID)
		}
		if child.VariantType != model.VariantIMEIChild {
			return apperror.New(apperror.KindInvalidArgument, "only serialized units can be purged", map[string]string{
				"variant_id": childID,
			})
		}
		if child.IsActive {
			return apperror.InvalidState("variant", childID, "active", "purge")
		}

		s = child.Serial()
		if s != "" {
			if err := uc.serials.Release(ctx, s); err != nil {
				return err
			}
		}
		return uc.repo.Delete(ctx, childID)
	})
	if err != nil {
		return err
	}

	uc.logger.Warn("serialized unit purged", zap.String("variant_id", childID), zap.String("serial", s))
	return nil
}

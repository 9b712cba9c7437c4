package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	variantdto "github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// moveStock runs inside Complete's transaction, after the status has been
// claimed. Lock order is source, destination, then children.
func (uc *transferUseCase) moveStock(ctx context.Context, t *model.BranchTransfer, by string) error {
	src, err := uc.variants.FindByIDForUpdate(ctx, t.EntityID)
	if err != nil {
		return err
	}
	if src == nil {
		return apperror.NotFound("variant", t.EntityID)
	}
	if src.ReservedQuantity < t.Quantity || src.Quantity < t.Quantity {
		return apperror.InsufficientStock(src.ID, src.Quantity, src.ReservedQuantity, t.Quantity)
	}

	dest, err := uc.counterpart(ctx, src, t.ToBranchID)
	if err != nil {
		return err
	}

	switch src.VariantType {
	case model.VariantParent:
		err = uc.moveUnits(ctx, t, src, dest, by)
	default:
		err = uc.moveQuantity(ctx, t, src, dest, by)
	}
	if err != nil {
		return err
	}

	t.DestinationVariantID = model.StringPtr(dest.ID)
	if err := uc.repo.Update(ctx, t); err != nil {
		return err
	}
	_, err = uc.stock.SyncProductAggregate(ctx, src.ProductID)
	return err
}

// counterpart finds the destination variant for src at branchID, creating an
// empty one when the branch does not carry the line yet.
func (uc *transferUseCase) counterpart(ctx context.Context, src *model.Variant, branchID string) (*model.Variant, error) {
	candidates, err := uc.variants.FindCounterparts(ctx, src.ProductID, branchID, src.Name, src.VariantType)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].IsActive && model.SameLine(candidates[i].Attributes, src.Attributes) {
			return &candidates[i], nil
		}
	}

	now := time.Now().UTC()
	dest := &model.Variant{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ProductID:    src.ProductID,
		VariantType:  src.VariantType,
		Name:         src.Name,
		SKU:          src.SKU,
		BranchID:     branchID,
		IsActive:     true,
		IsShared:     src.IsShared,
		CostPrice:    src.CostPrice,
		SellingPrice: src.SellingPrice,
		Attributes:   model.LineAttributes(src.Attributes),
	}
	if err := uc.variants.Create(ctx, dest); err != nil {
		return nil, err
	}
	return dest, nil
}

func (uc *transferUseCase) moveQuantity(ctx context.Context, t *model.BranchTransfer, src, dest *model.Variant, by string) error {
	now := time.Now().UTC()

	srcBefore := src.Quantity
	src.Quantity -= t.Quantity
	src.ReservedQuantity -= t.Quantity
	src.UpdatedAt = now
	if err := uc.variants.Update(ctx, src); err != nil {
		return err
	}
	if err := uc.record(ctx, src, model.MovementTransferOut, srcBefore, t, by); err != nil {
		return err
	}

	destBefore := dest.Quantity
	dest.Quantity += t.Quantity
	dest.UpdatedAt = now
	if err := uc.variants.Update(ctx, dest); err != nil {
		return err
	}
	return uc.record(ctx, dest, model.MovementTransferIn, destBefore, t, by)
}

// moveUnits re-parents the oldest available units to dest and lets both
// parents recompute their quantity from their children.
func (uc *transferUseCase) moveUnits(ctx context.Context, t *model.BranchTransfer, src, dest *model.Variant, by string) error {
	src.ReservedQuantity -= t.Quantity
	src.UpdatedAt = time.Now().UTC()
	if err := uc.variants.Update(ctx, src); err != nil {
		return err
	}

	units, err := uc.variants.PickAvailableChildren(ctx, src.ID, t.Quantity)
	if err != nil {
		return err
	}
	if len(units) < t.Quantity {
		return apperror.New(apperror.KindInsufficientStock, "not enough available units to ship", map[string]string{
			"variant_id":  src.ID,
			"transfer_id": t.ID,
			"available":   fmt.Sprint(len(units)),
			"requested":   fmt.Sprint(t.Quantity),
		})
	}

	serials := make(datatypes.JSONSlice[string], 0, len(units))
	for i := range units {
		unit := &units[i]
		unit.ParentVariantID = model.StringPtr(dest.ID)
		unit.BranchID = dest.BranchID
		unit.UpdatedAt = time.Now().UTC()
		if err := uc.variants.Update(ctx, unit); err != nil {
			return err
		}
		serials = append(serials, unit.Serial())
	}
	t.MovedSerials = serials

	notes := fmt.Sprintf("transfer %s", t.ID)
	if _, err := uc.stock.Recompute(ctx, src.ID, &variantdto.Movement{
		Type:          model.MovementTransferOut,
		ReferenceType: model.RefTransfer,
		ReferenceID:   t.ID,
		Notes:         notes,
		CreatedBy:     by,
	}); err != nil {
		return err
	}
	_, err = uc.stock.Recompute(ctx, dest.ID, &variantdto.Movement{
		Type:          model.MovementTransferIn,
		ReferenceType: model.RefTransfer,
		ReferenceID:   t.ID,
		Notes:         notes,
		CreatedBy:     by,
	})
	return err
}

func (uc *transferUseCase) record(ctx context.Context, v *model.Variant, mt model.MovementType, before int, t *model.BranchTransfer, by string) error {
	_, err := uc.ledger.Append(ctx, &model.StockMovement{
		ProductID:      v.ProductID,
		VariantID:      v.ID,
		BranchID:       v.BranchID,
		MovementType:   mt,
		QuantityChange: v.Quantity - before,
		QuantityBefore: before,
		QuantityAfter:  v.Quantity,
		ReferenceType:  model.StringPtr(model.RefTransfer),
		ReferenceID:    model.StringPtr(t.ID),
		Notes:          fmt.Sprintf("transfer %s", t.ID),
		CreatedBy:      model.StringPtr(by),
	})
	return err
}

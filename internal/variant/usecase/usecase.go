package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/branch"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/internal/variant"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type variantUseCase struct {
	tx       storage.Transactor
	repo     variant.Repository
	products product.Repository
	cache    *cache.RedisClient
	branches branch.UseCase
	serials  serial.UseCase
	ledger   ledger.UseCase
	resolver *visibility.Resolver
	metrics  *metrics.Metrics
	logger   logger.ZapLogger
}

func NewVariantUseCase(
	tx storage.Transactor,
	repo variant.Repository,
	products product.Repository,
	cache *cache.RedisClient,
	branches branch.UseCase,
	serials serial.UseCase,
	ledger ledger.UseCase,
	resolver *visibility.Resolver,
	m *metrics.Metrics,
	log logger.ZapLogger,
) variant.UseCase {
	return &variantUseCase{
		tx:       tx,
		repo:     repo,
		products: products,
		cache:    cache,
		branches: branches,
		serials:  serials,
		ledger:   ledger,
		resolver: resolver,
		metrics:  m,
		logger:   log,
	}
}

func (uc *variantUseCase) CreateParent(ctx context.Context, input *dto.CreateVariantInput) (*model.Variant, error) {
	if input.InitialQuantity != 0 {
		return nil, apperror.InvalidArgument("parent variants take stock as serialized units")
	}
	return uc.createRoot(ctx, input, model.VariantParent)
}

func (uc *variantUseCase) CreateStandard(ctx context.Context, input *dto.CreateVariantInput) (*model.Variant, error) {
	if input.InitialQuantity < 0 {
		return nil, apperror.InvalidArgument("initial quantity cannot be negative")
	}
	return uc.createRoot(ctx, input, model.VariantStandard)
}

func (uc *variantUseCase) createRoot(ctx context.Context, input *dto.CreateVariantInput, variantType model.VariantType) (*model.Variant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.InvalidArgument("variant name is required")
	}
	if input.CostPrice.IsNegative() || input.SellingPrice.IsNegative() {
		return nil, apperror.InvalidArgument("prices cannot be negative")
	}
	if _, err := uc.branches.RequireActive(ctx, input.BranchID); err != nil {
		return nil, err
	}

	var v *model.Variant
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := uc.products.FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if p == nil || !p.IsActive {
			return apperror.NotFound("product", input.ProductID)
		}

		id := uuid.New().String()
		sku := strings.TrimSpace(input.SKU)
		if sku == "" {
			sku = fmt.Sprintf("%s-%s", p.SKU, strings.ToUpper(id[:8]))
		}

		now := time.Now().UTC()
		v = &model.Variant{
			BaseModel:    model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
			ProductID:    p.ID,
			VariantType:  variantType,
			Name:         name,
			SKU:          sku,
			Quantity:     input.InitialQuantity,
			BranchID:     input.BranchID,
			IsActive:     true,
			IsShared:     input.IsShared,
			CostPrice:    input.CostPrice,
			SellingPrice: input.SellingPrice,
			Attributes:   model.CloneAttributes(input.Attributes),
		}
		if err := uc.repo.Create(ctx, v); err != nil {
			return err
		}

		if err := uc.record(ctx, v, model.MovementPurchase, 0, v.Quantity, model.RefVariant, v.ID, "initial stock", input.CreatedBy); err != nil {
			return err
		}
		_, err = uc.syncProduct(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("variant created",
		zap.String("variant_id", v.ID),
		zap.String("variant_type", string(variantType)),
		zap.String("branch_id", v.BranchID),
	)
	return v, nil
}

func (uc *variantUseCase) CreateChild(ctx context.Context, input *dto.CreateChildInput) (*model.Variant, error) {
	var child *model.Variant
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		child, err = uc.createChild(ctx, input.ParentID, &input.Unit, input.ReferenceType, input.ReferenceID, input.CreatedBy)
		return err
	})
	if err != nil {
		if apperror.IsRetryable(err) {
			uc.metrics.RecordConflict(ctx, "create_child")
		}
		uc.logger.Warn("serialized unit rejected",
			zap.String("parent_variant_id", input.ParentID),
			zap.String("serial", serial.Normalize(input.Unit.Serial)),
			zap.Error(err),
		)
		return nil, err
	}
	return child, nil
}

func (uc *variantUseCase) CreateChildren(ctx context.Context, input *dto.CreateChildrenInput) (*dto.BulkResult, error) {
	if len(input.Units) == 0 {
		return nil, apperror.InvalidArgument("at least one unit is required")
	}

	result := &dto.BulkResult{Results: make([]dto.UnitResult, 0, len(input.Units))}
	for i := range input.Units {
		unit := &input.Units[i]
		child, err := uc.CreateChild(ctx, &dto.CreateChildInput{
			ParentID:      input.ParentID,
			Unit:          *unit,
			ReferenceType: input.ReferenceType,
			ReferenceID:   input.ReferenceID,
			CreatedBy:     input.CreatedBy,
		})
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res := dto.UnitResult{Serial: serial.Normalize(unit.Serial), Variant: child, Err: err}
		if err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Results = append(result.Results, res)
	}

	uc.logger.Info("bulk unit intake finished",
		zap.String("parent_variant_id", input.ParentID),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// createChild must run inside a transaction.
func (uc *variantUseCase) createChild(ctx context.Context, parentID string, unit *dto.UnitInput, refType, refID, createdBy string) (*model.Variant, error) {
	s := serial.Normalize(unit.Serial)
	if s == "" {
		return nil, apperror.InvalidArgument("serial is required")
	}

	parent, err := uc.repo.FindByIDForUpdate(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil || !parent.IsActive || parent.VariantType == model.VariantIMEIChild {
		return nil, apperror.ParentNotFound(parentID)
	}

	now := time.Now().UTC()
	if parent.VariantType == model.VariantStandard {
		if parent.Quantity != 0 || parent.ReservedQuantity != 0 {
			return nil, apperror.New(apperror.KindInvalidArgument, "standard variant holding stock cannot take serialized units", map[string]string{
				"variant_id": parent.ID,
				"quantity":   fmt.Sprint(parent.Quantity),
				"reserved":   fmt.Sprint(parent.ReservedQuantity),
			})
		}
		parent.VariantType = model.VariantParent
		parent.UpdatedAt = now
		if err := uc.repo.Update(ctx, parent); err != nil {
			return nil, err
		}
		uc.logger.Info("standard variant converted to parent", zap.String("variant_id", parent.ID))
	}

	attrs := model.CloneAttributes(unit.Attributes)
	attrs[model.AttrSerial] = s
	setAttr(attrs, model.AttrIMEI, unit.IMEI)
	setAttr(attrs, model.AttrSerialNumber, unit.SerialNumber)
	setAttr(attrs, model.AttrMACAddress, unit.MACAddress)
	setAttr(attrs, model.AttrNotes, unit.Notes)
	condition := unit.Condition
	if condition == "" {
		condition = "new"
	}
	attrs[model.AttrCondition] = condition
	if refType != "" {
		attrs[model.AttrSource] = refType
	}

	cost := unit.CostPrice
	if cost.IsZero() {
		cost = parent.CostPrice
	}
	price := unit.SellingPrice
	if price.IsZero() {
		price = parent.SellingPrice
	}

	child := &model.Variant{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ProductID:       parent.ProductID,
		ParentVariantID: &parent.ID,
		VariantType:     model.VariantIMEIChild,
		Name:            s,
		SKU:             parent.SKU + "-" + s,
		Quantity:        1,
		BranchID:        parent.BranchID,
		IsActive:        true,
		IsShared:        parent.IsShared,
		CostPrice:       cost,
		SellingPrice:    price,
		Attributes:      attrs,
	}

	// The serial claim goes first so a duplicate fails before any row is written.
	if err := uc.serials.Register(ctx, s, child.ID); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, child); err != nil {
		return nil, err
	}

	if refType == "" {
		refType, refID = model.RefVariant, child.ID
	}
	if err := uc.record(ctx, child, model.MovementPurchase, 0, 1, refType, refID, "serialized unit received", createdBy); err != nil {
		return nil, err
	}
	if _, err := uc.Recompute(ctx, parent.ID, &dto.Movement{
		Type:          model.MovementPurchase,
		ReferenceType: model.RefVariant,
		ReferenceID:   child.ID,
		Notes:         "unit " + s + " received",
		CreatedBy:     createdBy,
	}); err != nil {
		return nil, err
	}
	if _, err := uc.syncProduct(ctx, parent.ProductID); err != nil {
		return nil, err
	}
	return child, nil
}

func setAttr(attrs map[string]interface{}, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		attrs[key] = value
	}
}

// record appends a ledger row for a quantity change. Unchanged quantities
// write nothing.
func (uc *variantUseCase) record(ctx context.Context, v *model.Variant, mt model.MovementType, before, after int, refType, refID, notes, createdBy string) error {
	if before == after {
		return nil
	}
	_, err := uc.ledger.Append(ctx, &model.StockMovement{
		ProductID:      v.ProductID,
		VariantID:      v.ID,
		BranchID:       v.BranchID,
		MovementType:   mt,
		QuantityChange: after - before,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceType:  model.StringPtr(refType),
		ReferenceID:    model.StringPtr(refID),
		Notes:          notes,
		CreatedBy:      model.StringPtr(createdBy),
	})
	return err
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger() ledger.UseCase {
	return NewLedgerUseCase(repository.NewMemoryRepository(memory.NewDB(time.Second)), nil, logger.NewNop())
}

func movement(variantID string, typ model.MovementType, before, change int) *model.StockMovement {
	return &model.StockMovement{
		ProductID:      "p-1",
		VariantID:      variantID,
		BranchID:       "b-1",
		MovementType:   typ,
		QuantityBefore: before,
		QuantityChange: change,
		QuantityAfter:  before + change,
		ReferenceType:  model.StringPtr(model.RefTransfer),
		ReferenceID:    model.StringPtr("t-1"),
	}
}

func TestAppendRejectsInconsistentRows(t *testing.T) {
	uc := newLedger()
	ctx := context.Background()

	bad := movement("v-1", model.MovementSale, 1, -1)
	bad.QuantityAfter = 5
	_, err := uc.Append(ctx, bad)
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))

	_, err = uc.Append(ctx, movement("v-1", model.MovementSale, 0, -1))
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument), "cannot go negative")

	_, err = uc.Append(ctx, movement("v-1", "teleport", 0, 1))
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))

	_, err = uc.Append(ctx, movement("v-1", model.MovementAdjustment, 3, 0))
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
}

func TestSumAndAudit(t *testing.T) {
	uc := newLedger()
	ctx := context.Background()

	for _, m := range []*model.StockMovement{
		movement("v-1", model.MovementPurchase, 0, 5),
		movement("v-1", model.MovementSale, 5, -2),
		movement("v-1", model.MovementTransferOut, 3, -1),
		movement("v-2", model.MovementTransferIn, 0, 1),
	} {
		id, err := uc.Append(ctx, m)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	sum, err := uc.SumByVariant(ctx, "v-1")
	require.NoError(t, err)
	assert.Equal(t, 2, sum)

	audit, err := uc.Audit(ctx, &model.Variant{BaseModel: model.BaseModel{ID: "v-1"}, Quantity: 2})
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
	assert.Equal(t, 3, audit.Entries)

	audit, err = uc.Audit(ctx, &model.Variant{BaseModel: model.BaseModel{ID: "v-1"}, Quantity: 4})
	require.NoError(t, err)
	assert.False(t, audit.Consistent)

	byRef, err := uc.QueryByReference(ctx, model.RefTransfer, "t-1")
	require.NoError(t, err)
	assert.Len(t, byRef, 4)

	items, total, err := uc.ListMovements(ctx, &dto.MovementFilters{MovementType: string(model.MovementSale)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, -2, items[0].QuantityChange)
}

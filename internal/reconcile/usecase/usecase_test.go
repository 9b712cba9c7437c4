package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	branchdto "github.com/fekuna/omnipos-stock-service/internal/branch/dto"
	branchrepo "github.com/fekuna/omnipos-stock-service/internal/branch/repository"
	branchuc "github.com/fekuna/omnipos-stock-service/internal/branch/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	ledgerrepo "github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	ledgeruc "github.com/fekuna/omnipos-stock-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	productrepo "github.com/fekuna/omnipos-stock-service/internal/product/repository"
	"github.com/fekuna/omnipos-stock-service/internal/reconcile/dto"
	serialrepo "github.com/fekuna/omnipos-stock-service/internal/serial/repository"
	serialuc "github.com/fekuna/omnipos-stock-service/internal/serial/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/variant"
	variantdto "github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	variantrepo "github.com/fekuna/omnipos-stock-service/internal/variant/repository"
	variantuc "github.com/fekuna/omnipos-stock-service/internal/variant/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uc        *reconcileUseCase
	stock     variant.UseCase
	variants  *variantrepo.MemoryRepository
	products  product.Repository
	ledger    ledger.UseCase
	mr        *miniredis.Miniredis
	branchID  string
	productID string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	db := memory.NewDB(time.Second)
	mr := miniredis.RunT(t)
	rc := &cache.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	branches := branchuc.NewBranchUseCase(branchrepo.NewMemoryRepository(db), nil, log)
	b, err := branches.RegisterBranch(ctx, &branchdto.RegisterBranchInput{Name: "Dar", Code: "DAR"})
	require.NoError(t, err)

	products := productrepo.NewMemoryRepository(db)
	now := time.Now().UTC()
	p := &model.Product{BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}, Name: "Pixel 9", SKU: "PX9", IsActive: true}
	require.NoError(t, products.Create(ctx, p))

	variants := variantrepo.NewMemoryRepository(db)
	ledgerUC := ledgeruc.NewLedgerUseCase(ledgerrepo.NewMemoryRepository(db), nil, log)
	serials := serialuc.NewSerialUseCase(serialrepo.NewMemoryRepository(db), nil, log)
	stock := variantuc.NewVariantUseCase(db, variants, products, nil, branches, serials, ledgerUC, visibility.NewResolver(branches), nil, log)

	uc := NewReconcileUseCase(Config{PageSize: 1}, db, variants, stock, ledgerUC, rc, nil, log).(*reconcileUseCase)
	return &fixture{
		uc:        uc,
		stock:     stock,
		variants:  variants,
		products:  products,
		ledger:    ledgerUC,
		mr:        mr,
		branchID:  b.ID,
		productID: p.ID,
	}
}

func (f *fixture) parentWithUnits(t *testing.T, name string, serials ...string) *model.Variant {
	t.Helper()
	ctx := context.Background()
	parent, err := f.stock.CreateParent(ctx, &variantdto.CreateVariantInput{ProductID: f.productID, BranchID: f.branchID, Name: name})
	require.NoError(t, err)
	for _, s := range serials {
		_, err := f.stock.CreateChild(ctx, &variantdto.CreateChildInput{ParentID: parent.ID, Unit: variantdto.UnitInput{Serial: s}})
		require.NoError(t, err)
	}
	return parent
}

// dropUnit deactivates a unit behind the parent's back, the way the old
// trigger-based paths used to.
func (f *fixture) dropUnit(t *testing.T, parentID string) {
	t.Helper()
	ctx := context.Background()
	units, err := f.variants.FindChildren(ctx, parentID, true)
	require.NoError(t, err)
	require.NotEmpty(t, units)
	units[0].IsActive = false
	units[0].Quantity = 0
	require.NoError(t, f.variants.Update(ctx, &units[0]))
}

func (f *fixture) reload(t *testing.T, id string) *model.Variant {
	t.Helper()
	v, err := f.variants.FindByID(context.Background(), id)
	require.NoError(t, err)
	return v
}

func TestReportModeLeavesDriftInPlace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.parentWithUnits(t, "Obsidian", "P-1", "P-2")
	drifted := f.parentWithUnits(t, "Porcelain", "P-3", "P-4")
	f.parentWithUnits(t, "Hazel")
	f.dropUnit(t, drifted.ID)

	summary, err := f.uc.ReconcileAll(ctx, dto.ModeReport)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 1, summary.Drifted)
	assert.Equal(t, 0, summary.Repaired)
	require.Len(t, summary.Reports, 1)

	r := summary.Reports[0]
	assert.Equal(t, drifted.ID, r.VariantID)
	assert.Equal(t, 2, r.StoredQuantity)
	assert.Equal(t, 1, r.UnitSum)
	assert.True(t, r.QuantityDrift)
	assert.False(t, r.LedgerDrift)

	assert.Equal(t, 2, f.reload(t, drifted.ID).Quantity)
}

func TestRepairModeRecomputesAndRecordsAdjustment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	drifted := f.parentWithUnits(t, "Porcelain", "P-3", "P-4")
	f.dropUnit(t, drifted.ID)

	// a transfer reservation that the remaining unit cannot cover
	parent := f.reload(t, drifted.ID)
	parent.ReservedQuantity = 2
	require.NoError(t, f.variants.Update(ctx, parent))

	summary, err := f.uc.ReconcileAll(ctx, dto.ModeRepair)
	require.NoError(t, err)
	require.Len(t, summary.Reports, 1)
	assert.True(t, summary.Reports[0].ReservationExcess)
	assert.True(t, summary.Reports[0].Repaired)
	assert.Equal(t, 1, summary.ProductsSynced)

	after := f.reload(t, drifted.ID)
	assert.Equal(t, 1, after.Quantity)
	assert.Equal(t, 1, after.ReservedQuantity)

	rows, err := f.ledger.QueryByReference(ctx, model.RefReconcile, drifted.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MovementAdjustment, rows[0].MovementType)
	assert.Equal(t, -1, rows[0].QuantityChange)

	audit, err := f.ledger.Audit(ctx, after)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)

	p, err := f.products.FindByID(ctx, f.productID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalQuantity)

	again, err := f.uc.ReconcileAll(ctx, dto.ModeReport)
	require.NoError(t, err)
	assert.Zero(t, again.Drifted)
}

func TestLeasePreventsOverlappingSweeps(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.mr.Set(leaseKey, "someone-else"))
	_, err := f.uc.ReconcileAll(ctx, dto.ModeReport)
	assert.True(t, errors.Is(err, apperror.ErrConcurrentModification))

	f.mr.Del(leaseKey)
	_, err = f.uc.ReconcileAll(ctx, dto.ModeReport)
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(leaseKey), "lease is released after the sweep")

	_, err = f.uc.ReconcileAll(ctx, dto.Mode("fix"))
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
}

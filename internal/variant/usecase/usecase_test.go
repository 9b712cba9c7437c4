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
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	serialrepo "github.com/fekuna/omnipos-stock-service/internal/serial/repository"
	serialuc "github.com/fekuna/omnipos-stock-service/internal/serial/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"github.com/fekuna/omnipos-stock-service/internal/variant/repository"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uc        *variantUseCase
	repo      *repository.MemoryRepository
	ledger    ledger.UseCase
	serials   serial.UseCase
	products  product.Repository
	cache     *cache.RedisClient
	mr        *miniredis.Miniredis
	branchA   string
	branchB   string
	productID string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	db := memory.NewDB(time.Second)

	branches := branchuc.NewBranchUseCase(branchrepo.NewMemoryRepository(db), nil, log)
	a, err := branches.RegisterBranch(ctx, &branchdto.RegisterBranchInput{Name: "Dar", Code: "DAR", Mode: model.IsolationHybrid, Flags: model.SharingFlags{ShareInventory: true}})
	require.NoError(t, err)
	b, err := branches.RegisterBranch(ctx, &branchdto.RegisterBranchInput{Name: "Mwanza", Code: "MWZ"})
	require.NoError(t, err)

	products := productrepo.NewMemoryRepository(db)
	now := time.Now().UTC()
	p := &model.Product{BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}, Name: "iPhone 15", SKU: "IPH15", IsActive: true}
	require.NoError(t, products.Create(ctx, p))

	mr := miniredis.RunT(t)
	f := &fixture{
		cache:     &cache.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})},
		mr:        mr,
		repo:      repository.NewMemoryRepository(db),
		ledger:    ledgeruc.NewLedgerUseCase(ledgerrepo.NewMemoryRepository(db), nil, log),
		serials:   serialuc.NewSerialUseCase(serialrepo.NewMemoryRepository(db), nil, log),
		products:  products,
		branchA:   a.ID,
		branchB:   b.ID,
		productID: p.ID,
	}
	f.uc = NewVariantUseCase(db, f.repo, products, f.cache, branches, f.serials, f.ledger, visibility.NewResolver(branches), nil, log).(*variantUseCase)
	return f
}

func (f *fixture) parent(t *testing.T) *model.Variant {
	t.Helper()
	v, err := f.uc.CreateParent(context.Background(), &dto.CreateVariantInput{
		ProductID:    f.productID,
		BranchID:     f.branchA,
		Name:         "128GB Black",
		CostPrice:    decimal.NewFromInt(900),
		SellingPrice: decimal.NewFromInt(1100),
		Attributes:   map[string]interface{}{"storage": "128GB", "color": "black"},
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) child(t *testing.T, parentID, s string) *model.Variant {
	t.Helper()
	v, err := f.uc.CreateChild(context.Background(), &dto.CreateChildInput{ParentID: parentID, Unit: dto.UnitInput{Serial: s}})
	require.NoError(t, err)
	return v
}

func (f *fixture) reload(t *testing.T, id string) *model.Variant {
	t.Helper()
	v, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, v)
	return v
}

// assertAggregated checks that the parent equals the sum of its units and
// that every touched variant's ledger replays to its stored quantity.
func (f *fixture) assertAggregated(t *testing.T, parentID string) {
	t.Helper()
	ctx := context.Background()
	parent := f.reload(t, parentID)
	sum, err := f.repo.SumActiveChildren(ctx, parentID)
	require.NoError(t, err)
	assert.Equal(t, sum, parent.Quantity)
	assert.LessOrEqual(t, parent.ReservedQuantity, parent.Quantity)

	audit, err := f.ledger.Audit(ctx, parent)
	require.NoError(t, err)
	assert.True(t, audit.Consistent, "parent ledger sum %d, quantity %d", audit.LedgerSum, audit.Quantity)

	children, err := f.repo.FindChildren(ctx, parentID, false)
	require.NoError(t, err)
	for i := range children {
		audit, err := f.ledger.Audit(ctx, &children[i])
		require.NoError(t, err)
		assert.True(t, audit.Consistent, "child %s", children[i].Name)
	}
}

func TestReceiveSerializedUnits(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)

	child := f.child(t, parent.ID, " imei-001 ")
	f.child(t, parent.ID, "IMEI-002")
	f.child(t, parent.ID, "IMEI-003")

	assert.Equal(t, "IMEI-001", child.Serial())
	assert.Equal(t, 1, child.Quantity)
	assert.Equal(t, f.branchA, child.BranchID)
	assert.Equal(t, "new", child.Attributes[model.AttrCondition])
	assert.True(t, child.CostPrice.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, 3, f.reload(t, parent.ID).Quantity)

	p, err := f.products.FindByID(ctx, f.productID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.TotalQuantity)

	rows, err := f.ledger.QueryByVariant(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.MovementPurchase, rows[0].MovementType)
	assert.Equal(t, model.RefVariant, model.StringValue(rows[0].ReferenceType))

	f.assertAggregated(t, parent.ID)
}

func TestDuplicateSerialRejectedAcrossParents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.parent(t)
	second := f.parent(t)

	holder := f.child(t, first.ID, "IMEI-001")

	_, err := f.uc.CreateChild(ctx, &dto.CreateChildInput{ParentID: second.ID, Unit: dto.UnitInput{Serial: "imei-001"}})
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindDuplicateSerial, appErr.Kind)
	assert.Equal(t, holder.ID, appErr.Field("conflicting_variant"))

	assert.Equal(t, 0, f.reload(t, second.ID).Quantity)
	children, err := f.repo.FindChildren(ctx, second.ID, false)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestCreateChildRequiresUsableParent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.uc.CreateChild(ctx, &dto.CreateChildInput{ParentID: "missing", Unit: dto.UnitInput{Serial: "S1"}})
	assert.True(t, errors.Is(err, apperror.ErrParentNotFound))

	parent := f.parent(t)
	child := f.child(t, parent.ID, "S1")
	_, err = f.uc.CreateChild(ctx, &dto.CreateChildInput{ParentID: child.ID, Unit: dto.UnitInput{Serial: "S2"}})
	assert.True(t, errors.Is(err, apperror.ErrParentNotFound))

	_, err = f.uc.CreateChild(ctx, &dto.CreateChildInput{ParentID: parent.ID, Unit: dto.UnitInput{Serial: "  "}})
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
}

func TestStandardVariantConvertsOnlyWhenEmpty(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	empty, err := f.uc.CreateStandard(ctx, &dto.CreateVariantInput{ProductID: f.productID, BranchID: f.branchA, Name: "Blue"})
	require.NoError(t, err)
	stocked, err := f.uc.CreateStandard(ctx, &dto.CreateVariantInput{ProductID: f.productID, BranchID: f.branchA, Name: "Red", InitialQuantity: 4})
	require.NoError(t, err)

	f.child(t, empty.ID, "S-BLUE-1")
	converted := f.reload(t, empty.ID)
	assert.Equal(t, model.VariantParent, converted.VariantType)
	assert.Equal(t, 1, converted.Quantity)

	_, err = f.uc.CreateChild(ctx, &dto.CreateChildInput{ParentID: stocked.ID, Unit: dto.UnitInput{Serial: "S-RED-1"}})
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
	assert.Equal(t, model.VariantStandard, f.reload(t, stocked.ID).VariantType)

	ok, err := f.serials.Exists(ctx, "S-RED-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaleDeactivatesUnit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)
	sold := f.child(t, parent.ID, "IMEI-001")
	f.child(t, parent.ID, "IMEI-002")

	got, err := f.uc.DeactivateBySerial(ctx, &dto.DeactivateBySerialInput{Serial: "imei-001", Reason: dto.ReasonSale, SaleID: "sale-9"})
	require.NoError(t, err)
	assert.Equal(t, sold.ID, got.ID)
	assert.False(t, got.IsActive)
	assert.Equal(t, 0, got.Quantity)
	assert.NotEmpty(t, got.Attributes[model.AttrSoldAt])
	assert.Equal(t, "sale-9", got.Attributes[model.AttrSaleID])
	assert.Equal(t, 1, f.reload(t, parent.ID).Quantity)

	rows, err := f.ledger.QueryByReference(ctx, model.RefSale, "sale-9")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MovementSale, rows[0].MovementType)
	assert.Equal(t, -1, rows[0].QuantityChange)

	_, err = f.uc.Deactivate(ctx, &dto.DeactivateInput{ChildID: sold.ID, Reason: dto.ReasonSale})
	assert.True(t, errors.Is(err, apperror.ErrInvalidState))

	// The serial stays registered after a sale.
	ok, err := f.serials.Exists(ctx, "IMEI-001")
	require.NoError(t, err)
	assert.True(t, ok)

	f.assertAggregated(t, parent.ID)
}

func TestSoldSerialCannotBeReceivedAgain(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)
	sold := f.child(t, parent.ID, "IMEI-001")
	f.child(t, parent.ID, "IMEI-002")

	_, err := f.uc.Deactivate(ctx, &dto.DeactivateInput{ChildID: sold.ID, Reason: dto.ReasonSale})
	require.NoError(t, err)
	before, err := f.ledger.QueryByVariant(ctx, parent.ID)
	require.NoError(t, err)

	_, err = f.uc.CreateChild(ctx, &dto.CreateChildInput{ParentID: parent.ID, Unit: dto.UnitInput{Serial: "IMEI-001"}})
	assert.True(t, errors.Is(err, apperror.ErrDuplicateSerial))
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, sold.ID, appErr.Field("conflicting_variant"))

	assert.Equal(t, 1, f.reload(t, parent.ID).Quantity)
	children, err := f.repo.FindChildren(ctx, parent.ID, false)
	require.NoError(t, err)
	assert.Len(t, children, 2)
	after, err := f.ledger.QueryByVariant(ctx, parent.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	f.assertAggregated(t, parent.ID)
}

func TestDeactivateRespectsReservation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)
	unit := f.child(t, parent.ID, "IMEI-001")

	p := f.reload(t, parent.ID)
	p.ReservedQuantity = 1
	require.NoError(t, f.repo.Update(ctx, p))

	_, err := f.uc.Deactivate(ctx, &dto.DeactivateInput{ChildID: unit.ID, Reason: dto.ReasonWriteOff})
	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))
	assert.True(t, f.reload(t, unit.ID).IsActive)

	_, err = f.uc.Deactivate(ctx, &dto.DeactivateInput{ChildID: parent.ID, Reason: dto.ReasonWriteOff})
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
}

func TestPurgeReleasesSerialAndKeepsLedger(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)
	unit := f.child(t, parent.ID, "IMEI-BAD")

	err := f.uc.Purge(ctx, unit.ID)
	assert.True(t, errors.Is(err, apperror.ErrInvalidState))

	_, err = f.uc.Deactivate(ctx, &dto.DeactivateInput{ChildID: unit.ID, Reason: dto.ReasonDataError})
	require.NoError(t, err)
	require.NoError(t, f.uc.Purge(ctx, unit.ID))

	gone, err := f.repo.FindByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	rows, err := f.ledger.QueryByVariant(ctx, unit.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// The serial can be received again.
	f.child(t, parent.ID, "IMEI-BAD")
	assert.Equal(t, 1, f.reload(t, parent.ID).Quantity)
}

func TestCreateChildrenReportsEachUnit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)

	res, err := f.uc.CreateChildren(ctx, &dto.CreateChildrenInput{
		ParentID:      parent.ID,
		ReferenceType: model.RefPurchase,
		ReferenceID:   "po-1",
		Units: []dto.UnitInput{
			{Serial: "A1", IMEI: "356000000000001"},
			{Serial: "a1"},
			{Serial: "A2", CostPrice: decimal.NewFromInt(850)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, errors.Is(res.Results[1].Err, apperror.ErrDuplicateSerial))
	assert.True(t, res.Results[2].Variant.CostPrice.Equal(decimal.NewFromInt(850)))
	assert.Equal(t, model.RefPurchase, res.Results[0].Variant.Attributes[model.AttrSource])
	assert.Equal(t, 2, f.reload(t, parent.ID).Quantity)

	rows, err := f.ledger.QueryByReference(ctx, model.RefPurchase, "po-1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestStandardStockChanges(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	v, err := f.uc.CreateStandard(ctx, &dto.CreateVariantInput{ProductID: f.productID, BranchID: f.branchA, Name: "Case", InitialQuantity: 5})
	require.NoError(t, err)

	v, err = f.uc.ReceiveStock(ctx, &dto.ReceiveStockInput{VariantID: v.ID, Quantity: 3, ReferenceID: "po-2"})
	require.NoError(t, err)
	assert.Equal(t, 8, v.Quantity)

	v.ReservedQuantity = 6
	require.NoError(t, f.repo.Update(ctx, v))

	_, err = f.uc.AdjustStock(ctx, &dto.AdjustStockInput{VariantID: v.ID, Delta: -3, Reason: "damaged"})
	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))

	v, err = f.uc.AdjustStock(ctx, &dto.AdjustStockInput{VariantID: v.ID, Delta: -2, ReferenceType: model.RefSale, ReferenceID: "sale-1"})
	require.NoError(t, err)
	assert.Equal(t, 6, v.Quantity)

	rows, err := f.ledger.QueryByReference(ctx, model.RefSale, "sale-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MovementSale, rows[0].MovementType)

	audit, err := f.ledger.Audit(ctx, v)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)

	p, err := f.products.FindByID(ctx, f.productID)
	require.NoError(t, err)
	assert.Equal(t, 6, p.TotalQuantity)

	parent := f.parent(t)
	_, err = f.uc.ReceiveStock(ctx, &dto.ReceiveStockInput{VariantID: parent.ID, Quantity: 1})
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
}

func TestRecomputeParentRepairsDrift(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)
	f.child(t, parent.ID, "S1")
	f.child(t, parent.ID, "S2")

	drifted := f.reload(t, parent.ID)
	drifted.Quantity = 10
	require.NoError(t, f.repo.Update(ctx, drifted))

	qty, err := f.uc.RecomputeParent(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	rows, err := f.ledger.QueryByVariant(ctx, parent.ID)
	require.NoError(t, err)
	last := rows[len(rows)-1]
	assert.Equal(t, model.MovementAdjustment, last.MovementType)
	assert.Equal(t, 10, last.QuantityBefore)
	assert.Equal(t, -8, last.QuantityChange)
}

func TestRecomputeParentClampsDriftedReservation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)
	f.child(t, parent.ID, "S1")
	gone := f.child(t, parent.ID, "S2")

	// A unit lost outside the service while both were reserved.
	drifted := f.reload(t, parent.ID)
	drifted.ReservedQuantity = 2
	require.NoError(t, f.repo.Update(ctx, drifted))
	unit := f.reload(t, gone.ID)
	unit.IsActive = false
	unit.Quantity = 0
	require.NoError(t, f.repo.Update(ctx, unit))

	_, err := f.uc.Recompute(ctx, parent.ID, &dto.Movement{Type: model.MovementAdjustment, ReferenceType: model.RefVariant, ReferenceID: parent.ID})
	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))

	qty, err := f.uc.RecomputeParent(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)
	got := f.reload(t, parent.ID)
	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, 1, got.ReservedQuantity)
}

func TestStockChangesDropCachedProductLists(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)

	require.NoError(t, f.mr.Set("products:list:branch-a:abc", `{"products":[],"count":0}`))
	require.NoError(t, f.mr.Set("branch:keep", "1"))

	f.child(t, parent.ID, "S1")

	assert.False(t, f.mr.Exists("products:list:branch-a:abc"))
	assert.True(t, f.mr.Exists("branch:keep"))
	p, err := f.products.FindByID(ctx, f.productID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalQuantity)
}

func TestVariantVisibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := f.parent(t)
	f.child(t, parent.ID, "S1")

	_, err := f.uc.GetVariant(ctx, parent.ID, f.branchB)
	assert.True(t, errors.Is(err, apperror.ErrEntityNotVisible))

	_, err = f.uc.ListChildren(ctx, parent.ID, f.branchB, true)
	assert.True(t, errors.Is(err, apperror.ErrEntityNotVisible))

	children, err := f.uc.ListChildren(ctx, parent.ID, f.branchA, true)
	require.NoError(t, err)
	assert.Len(t, children, 1)

	items, err := f.uc.ListVariants(ctx, &dto.VariantFilters{BranchID: f.branchB, ProductID: f.productID})
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = f.uc.ListVariants(ctx, &dto.VariantFilters{BranchID: f.branchA, ProductID: f.productID, RootsOnly: true})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

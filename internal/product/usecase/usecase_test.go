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
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/product/repository"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uc       *productUseCase
	mr       *miniredis.Miniredis
	isolated string
	sharedA  string
	sharedB  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.NewDB(time.Second)
	mr := miniredis.RunT(t)
	rc := &cache.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	branches := branchuc.NewBranchUseCase(branchrepo.NewMemoryRepository(db), nil, logger.NewNop())
	register := func(code string, mode model.IsolationMode) string {
		b, err := branches.RegisterBranch(ctx, &branchdto.RegisterBranchInput{
			Name: code, Code: code, Mode: mode,
			Flags: model.SharingFlags{ShareProducts: true},
		})
		require.NoError(t, err)
		return b.ID
	}

	f := &fixture{mr: mr}
	f.isolated = register("ISO", model.IsolationIsolated)
	f.sharedA = register("SHA", model.IsolationHybrid)
	f.sharedB = register("SHB", model.IsolationShared)
	f.uc = NewProductUseCase(repository.NewMemoryRepository(db), visibility.NewResolver(branches), rc, logger.NewNop()).(*productUseCase)
	return f
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Phone X", SKU: "PX-1", BranchID: f.isolated})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, f.isolated, model.StringValue(p.BranchID))

	_, err = f.uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Phone Y", SKU: "PX-1"})
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))

	_, err = f.uc.CreateProduct(ctx, &dto.CreateProductInput{Name: " ", SKU: "PX-2"})
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
}

func TestGetProductHonorsVisibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	private, err := f.uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Private", SKU: "P-1", BranchID: f.isolated})
	require.NoError(t, err)
	pooled, err := f.uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Pooled", SKU: "P-2", BranchID: f.sharedA})
	require.NoError(t, err)
	global, err := f.uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Global", SKU: "P-3"})
	require.NoError(t, err)

	_, err = f.uc.GetProduct(ctx, private.ID, f.sharedB)
	assert.True(t, errors.Is(err, apperror.ErrEntityNotVisible))

	got, err := f.uc.GetProduct(ctx, pooled.ID, f.sharedB)
	require.NoError(t, err)
	assert.Equal(t, "Pooled", got.Name)

	_, err = f.uc.GetProduct(ctx, pooled.ID, f.isolated)
	assert.True(t, errors.Is(err, apperror.ErrEntityNotVisible))

	_, err = f.uc.GetProduct(ctx, global.ID, f.isolated)
	assert.NoError(t, err)

	_, err = f.uc.GetProduct(ctx, "missing", f.isolated)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestListProductsFiltersCachesAndInvalidates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, in := range []dto.CreateProductInput{
		{Name: "A", SKU: "A", BranchID: f.isolated},
		{Name: "B", SKU: "B", BranchID: f.sharedA},
		{Name: "C", SKU: "C"},
	} {
		in := in
		_, err := f.uc.CreateProduct(ctx, &in)
		require.NoError(t, err)
	}

	filters := &dto.ProductFilters{BranchID: f.sharedB, SortBy: "name", SortOrder: "asc"}
	items, count, err := f.uc.ListProducts(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].Name)
	assert.Equal(t, "C", items[1].Name)

	key, err := f.uc.generateCacheKey(filters)
	require.NoError(t, err)
	assert.True(t, f.mr.Exists(key))

	_, err = f.uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "D", SKU: "D", BranchID: f.sharedB})
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(key))

	items, count, err = f.uc.ListProducts(ctx, &dto.ProductFilters{BranchID: f.isolated, PageSize: 1, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, items, 1)
}

func TestDeactivateProductIsSoft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Old", SKU: "OLD", BranchID: f.sharedA})
	require.NoError(t, err)

	err = f.uc.DeactivateProduct(ctx, p.ID, f.sharedB)
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))

	require.NoError(t, f.uc.DeactivateProduct(ctx, p.ID, f.sharedA))
	got, err := f.uc.GetProduct(ctx, p.ID, f.sharedA)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active := true
	_, count, err := f.uc.ListProducts(ctx, &dto.ProductFilters{BranchID: f.sharedA, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

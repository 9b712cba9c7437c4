package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/branch/dto"
	"github.com/fekuna/omnipos-stock-service/internal/branch/repository"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*branchUseCase, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := &cache.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	repo := repository.NewMemoryRepository(memory.NewDB(time.Second))
	return NewBranchUseCase(repo, rc, logger.NewNop()).(*branchUseCase), mr
}

func TestRegisterBranchNormalizesAndRejectsDuplicates(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()

	b, err := uc.RegisterBranch(ctx, &dto.RegisterBranchInput{Name: "Main", Code: " dar-01 "})
	require.NoError(t, err)
	assert.Equal(t, "DAR-01", b.Code)
	assert.Equal(t, model.IsolationIsolated, b.DataIsolationMode)
	assert.True(t, b.IsActive)

	_, err = uc.RegisterBranch(ctx, &dto.RegisterBranchInput{Name: "Other", Code: "DAR-01"})
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))

	_, err = uc.RegisterBranch(ctx, &dto.RegisterBranchInput{Name: "Bad", Code: "X", Mode: "open"})
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
}

func TestLookupIsCachedAndInvalidatedOnPolicyUpdate(t *testing.T) {
	uc, mr := setup(t)
	ctx := context.Background()

	b, err := uc.RegisterBranch(ctx, &dto.RegisterBranchInput{Name: "Arusha", Code: "ARU"})
	require.NoError(t, err)

	got, err := uc.Lookup(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IsolationIsolated, got.DataIsolationMode)
	assert.True(t, mr.Exists("branches:"+b.ID))

	_, err = uc.UpdatePolicy(ctx, &dto.UpdatePolicyInput{
		ID:    b.ID,
		Mode:  model.IsolationHybrid,
		Flags: model.SharingFlags{ShareInventory: true},
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("branches:"+b.ID))

	got, err = uc.Lookup(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IsolationHybrid, got.DataIsolationMode)
	assert.True(t, got.ShareInventory)
}

func TestRequireActive(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()

	_, err := uc.RequireActive(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	b, err := uc.RegisterBranch(ctx, &dto.RegisterBranchInput{Name: "Mwanza", Code: "MWZ"})
	require.NoError(t, err)

	inactive := false
	_, err = uc.UpdatePolicy(ctx, &dto.UpdatePolicyInput{ID: b.ID, Mode: model.IsolationIsolated, IsActive: &inactive})
	require.NoError(t, err)

	_, err = uc.RequireActive(ctx, b.ID)
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
}

func TestLookupWithoutCache(t *testing.T) {
	repo := repository.NewMemoryRepository(memory.NewDB(time.Second))
	uc := NewBranchUseCase(repo, nil, logger.NewNop())
	ctx := context.Background()

	got, err := uc.Lookup(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

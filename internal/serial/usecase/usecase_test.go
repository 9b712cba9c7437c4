package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/serial/repository"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUseCase() serial.UseCase {
	return NewSerialUseCase(repository.NewMemoryRepository(memory.NewDB(time.Second)), nil, logger.NewNop())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "IMEI-001", serial.Normalize("  imei-001\t"))
	assert.Equal(t, "", serial.Normalize("   "))
}

func TestRegisterAndLookup(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	require.NoError(t, uc.Register(ctx, "imei-001", "v-1"))

	rec, err := uc.Lookup(ctx, " IMEI-001 ")
	require.NoError(t, err)
	assert.Equal(t, "v-1", rec.VariantID)

	ok, err := uc.Exists(ctx, "imei-001")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = uc.Lookup(ctx, "IMEI-404")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	err = uc.Register(ctx, "", "v-2")
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
}

func TestDuplicateNamesHolder(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	require.NoError(t, uc.Register(ctx, "IMEI-001", "v-1"))
	err := uc.Register(ctx, "imei-001 ", "v-2")

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindDuplicateSerial, appErr.Kind)
	assert.Equal(t, "v-1", appErr.Field("conflicting_variant"))
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	const claimants = 16
	var wg sync.WaitGroup
	errs := make([]error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = uc.Register(ctx, "IMEI-RACE", "v")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, apperror.ErrDuplicateSerial))
	}
	assert.Equal(t, 1, wins)
}

func TestReleaseFreesSerial(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	require.NoError(t, uc.Register(ctx, "IMEI-9", "v-1"))
	require.NoError(t, uc.Release(ctx, "imei-9"))
	assert.NoError(t, uc.Register(ctx, "IMEI-9", "v-2"))
}

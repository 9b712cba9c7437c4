package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/storage/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to POSTGRES_DSN and applies the schema. Tests are
// skipped when no database is configured.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	db, err := postgres.Open(dsn, &postgres.Config{MaxOpenConns: 4, MaxIdleConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, postgres.RunMigrations(db.DB))
	// Second run is a no-op.
	require.NoError(t, postgres.RunMigrations(db.DB))
	return db
}

func insertBranch(ctx context.Context, q postgres.DBTX, id string) error {
	_, err := q.ExecContext(ctx, `INSERT INTO branches (id, name, code) VALUES ($1, $2, $3)`, id, "Test "+id[:8], id)
	return err
}

func countBranches(t *testing.T, db *sqlx.DB, id string) int {
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM branches WHERE id = $1`, id))
	return n
}

func TestTransactorCommitsAndRollsBack(t *testing.T) {
	db := openTestDB(t)
	tx := postgres.NewTransactor(db, time.Second)
	ctx := context.Background()

	committed := uuid.NewString()
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		assert.True(t, postgres.InTx(ctx))
		return insertBranch(ctx, postgres.Executor(ctx, db), committed)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countBranches(t, db, committed))

	rolledBack := uuid.NewString()
	boom := errors.New("boom")
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := insertBranch(ctx, postgres.Executor(ctx, db), rolledBack); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countBranches(t, db, rolledBack))
}

func TestTransactorNestedCallJoinsOuter(t *testing.T) {
	db := openTestDB(t)
	tx := postgres.NewTransactor(db, time.Second)
	ctx := context.Background()

	id := uuid.NewString()
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := tx.WithinTx(ctx, func(ctx context.Context) error {
			return insertBranch(ctx, postgres.Executor(ctx, db), id)
		}); err != nil {
			return err
		}
		return errors.New("abort outer")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countBranches(t, db, id))
}

func TestLockTimeoutMapsToConcurrentModification(t *testing.T) {
	db := openTestDB(t)
	tx := postgres.NewTransactor(db, 100*time.Millisecond)
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, insertBranch(ctx, db, id))

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = tx.WithinTx(ctx, func(ctx context.Context) error {
			var got string
			if err := postgres.Executor(ctx, db).QueryRowxContext(ctx,
				`SELECT id FROM branches WHERE id = $1 FOR UPDATE`, id).Scan(&got); err != nil {
				return err
			}
			close(locked)
			<-done
			return nil
		})
	}()
	<-locked
	defer close(done)

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		var got string
		return postgres.Executor(ctx, db).QueryRowxContext(ctx,
			`SELECT id FROM branches WHERE id = $1 FOR UPDATE`, id).Scan(&got)
	})
	require.Error(t, err)
	assert.True(t, apperror.IsRetryable(err), "got %v", err)
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, insertBranch(ctx, db, id))
	err := insertBranch(ctx, db, id)
	require.Error(t, err)
	assert.True(t, postgres.IsUniqueViolation(err))
	assert.False(t, postgres.IsUniqueViolation(errors.New("other")))
}

// Package memory is an in-process store with the same transactional contract
// as the PostgreSQL store: writers are serialized, acquisition is bounded by a
// lock timeout, a failed transaction leaves no trace, and readers see the last
// committed snapshot without taking the writer lock.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
)

const DefaultLockTimeout = 2 * time.Second

type tables map[string]map[string]interface{}

func (t tables) clone() tables {
	out := make(tables, len(t))
	for name, rows := range t {
		cp := make(map[string]interface{}, len(rows))
		for id, row := range rows {
			cp[id] = row
		}
		out[name] = cp
	}
	return out
}

// DB is an in-process store with a single writer slot: every write
// transaction excludes every other, whatever rows it touches. It backs tests
// and STORE_DRIVER=memory local runs.
type DB struct {
	mu          sync.RWMutex
	committed   tables
	writer      chan struct{}
	lockTimeout time.Duration
}

func NewDB(lockTimeout time.Duration) *DB {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &DB{
		committed:   tables{},
		writer:      make(chan struct{}, 1),
		lockTimeout: lockTimeout,
	}
}

// Tx is a working copy of the tables. Values stored in it must not be
// mutated in place; repositories copy on the way in and on the way out.
type Tx struct {
	data     tables
	readOnly bool
}

type txKey struct{}

func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(*Tx); ok && !tx.readOnly {
		return fn(ctx)
	}

	if err := db.acquire(ctx); err != nil {
		return err
	}
	defer db.release()

	db.mu.RLock()
	tx := &Tx{data: db.committed.clone()}
	db.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	db.mu.Lock()
	db.committed = tx.data
	db.mu.Unlock()
	return nil
}

func (db *DB) acquire(ctx context.Context) error {
	timer := time.NewTimer(db.lockTimeout)
	defer timer.Stop()
	select {
	case db.writer <- struct{}{}:
		return nil
	case <-timer.C:
		return apperror.ConcurrentModification("timed out waiting for store lock")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (db *DB) release() {
	<-db.writer
}

// Read runs fn against the open transaction or, outside one, against the
// last committed snapshot.
func (db *DB) Read(ctx context.Context, fn func(tx *Tx) error) error {
	if tx, ok := ctx.Value(txKey{}).(*Tx); ok {
		return fn(tx)
	}
	db.mu.RLock()
	snapshot := db.committed
	db.mu.RUnlock()
	return fn(&Tx{data: snapshot, readOnly: true})
}

// Write joins the open transaction or runs fn in a transaction of its own.
func (db *DB) Write(ctx context.Context, fn func(tx *Tx) error) error {
	return db.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(txKey{}).(*Tx))
	})
}

func (tx *Tx) table(name string) map[string]interface{} {
	t, ok := tx.data[name]
	if !ok {
		t = map[string]interface{}{}
		if !tx.readOnly {
			tx.data[name] = t
		}
	}
	return t
}

func (tx *Tx) Put(table, id string, row interface{}) {
	if tx.readOnly {
		panic("memory: write outside transaction")
	}
	tx.table(table)[id] = row
}

func (tx *Tx) Delete(table, id string) {
	if tx.readOnly {
		panic("memory: write outside transaction")
	}
	delete(tx.table(table), id)
}

func Get[T any](tx *Tx, table, id string) (T, bool) {
	row, ok := tx.table(table)[id]
	if !ok {
		var zero T
		return zero, false
	}
	return row.(T), true
}

// All returns the rows of table that satisfy keep, ordered by key.
func All[T any](tx *Tx, table string, keep func(T) bool) []T {
	rows := tx.table(table)
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		row := rows[k].(T)
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Paginate slices items the way LIMIT/OFFSET does. A non-positive pageSize
// returns everything.
func Paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

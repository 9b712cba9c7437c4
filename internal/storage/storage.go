// Package storage declares the transaction boundary shared by every store.
package storage

import "context"

// Transactor runs fn inside one transaction. Calls made with the ctx handed
// to fn join that transaction; a nested WithinTx call joins the outer one.
// Lock acquisition is bounded; a timeout surfaces as
// apperror.ConcurrentModification.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

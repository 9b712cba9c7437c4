// Package apperror defines the error kinds surfaced by stock operations.
// Every error carries the identifiers needed to diagnose it; only
// ConcurrentModification is retryable.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindDuplicateSerial        Kind = "duplicate_serial"
	KindParentNotFound         Kind = "parent_not_found"
	KindInsufficientStock      Kind = "insufficient_stock"
	KindSameBranchTransfer     Kind = "same_branch_transfer"
	KindInvalidState           Kind = "invalid_state"
	KindConcurrentModification Kind = "concurrent_modification"
	KindEntityNotVisible       Kind = "entity_not_visible"
	KindNotFound               Kind = "not_found"
	KindInvalidArgument        Kind = "invalid_argument"
	KindDuplicateRequest       Kind = "duplicate_request"
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Fields[k]
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(parts, ", "))
}

// Is matches on Kind so callers can write errors.Is(err, apperror.ErrInvalidState).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Field(key string) string {
	return e.Fields[key]
}

var (
	ErrDuplicateSerial        = &Error{Kind: KindDuplicateSerial}
	ErrParentNotFound         = &Error{Kind: KindParentNotFound}
	ErrInsufficientStock      = &Error{Kind: KindInsufficientStock}
	ErrSameBranchTransfer     = &Error{Kind: KindSameBranchTransfer}
	ErrInvalidState           = &Error{Kind: KindInvalidState}
	ErrConcurrentModification = &Error{Kind: KindConcurrentModification}
	ErrEntityNotVisible       = &Error{Kind: KindEntityNotVisible}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrInvalidArgument        = &Error{Kind: KindInvalidArgument}
	ErrDuplicateRequest       = &Error{Kind: KindDuplicateRequest}
)

func New(kind Kind, msg string, fields map[string]string) *Error {
	return &Error{Kind: kind, Message: msg, Fields: fields}
}

func DuplicateSerial(serial, conflictingVariantID string) *Error {
	return New(KindDuplicateSerial, "serial already registered", map[string]string{
		"serial":              serial,
		"conflicting_variant": conflictingVariantID,
	})
}

func ParentNotFound(parentID string) *Error {
	return New(KindParentNotFound, "parent variant not found or cannot hold children", map[string]string{
		"parent_variant_id": parentID,
	})
}

func InsufficientStock(variantID string, quantity, reserved, requested int) *Error {
	return New(KindInsufficientStock,
		fmt.Sprintf("only %d available (%d reserved), %d requested", quantity-reserved, reserved, requested),
		map[string]string{
			"variant_id": variantID,
			"quantity":   fmt.Sprint(quantity),
			"reserved":   fmt.Sprint(reserved),
			"available":  fmt.Sprint(quantity - reserved),
			"requested":  fmt.Sprint(requested),
		})
}

func SameBranchTransfer(branchID string) *Error {
	return New(KindSameBranchTransfer, "source and destination branch must differ", map[string]string{
		"branch_id": branchID,
	})
}

func InvalidState(entity, id, current, action string) *Error {
	return New(KindInvalidState, fmt.Sprintf("cannot %s %s in state %s", action, entity, current), map[string]string{
		entity + "_id": id,
		"state":        current,
	})
}

func ConcurrentModification(msg string) *Error {
	return New(KindConcurrentModification, msg, nil)
}

func EntityNotVisible(kind, id, branchID string) *Error {
	return New(KindEntityNotVisible, kind+" is not visible from this branch", map[string]string{
		"entity_id": id,
		"branch_id": branchID,
	})
}

func NotFound(entity, id string) *Error {
	return New(KindNotFound, entity+" not found", map[string]string{
		entity + "_id": id,
	})
}

func InvalidArgument(msg string) *Error {
	return New(KindInvalidArgument, msg, nil)
}

func DuplicateRequest(key string) *Error {
	return New(KindDuplicateRequest, "request already processed", map[string]string{
		"idempotency_key": key,
	})
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsRetryable(err error) bool {
	return KindOf(err) == KindConcurrentModification
}

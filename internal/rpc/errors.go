package rpc

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var kindCodes = map[apperror.Kind]codes.Code{
	apperror.KindInvalidArgument:        codes.InvalidArgument,
	apperror.KindSameBranchTransfer:     codes.InvalidArgument,
	apperror.KindNotFound:               codes.NotFound,
	apperror.KindParentNotFound:         codes.NotFound,
	apperror.KindDuplicateSerial:        codes.AlreadyExists,
	apperror.KindDuplicateRequest:       codes.AlreadyExists,
	apperror.KindInsufficientStock:      codes.FailedPrecondition,
	apperror.KindInvalidState:           codes.FailedPrecondition,
	apperror.KindConcurrentModification: codes.Aborted,
	apperror.KindEntityNotVisible:       codes.PermissionDenied,
}

// Code returns the gRPC code for err.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if errors.Is(err, context.Canceled) {
		return codes.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return codes.DeadlineExceeded
	}
	if code, ok := kindCodes[apperror.KindOf(err)]; ok {
		return code
	}
	return codes.Internal
}

// ToStatus converts err to a gRPC status error. Internal errors hide their
// cause from the caller.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := Code(err)
	if code == codes.Internal {
		return status.Error(code, "internal error")
	}
	return status.Error(code, err.Error())
}

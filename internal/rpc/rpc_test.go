package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestErrorKindsMapToCodes(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{apperror.DuplicateSerial("S1", "v1"), codes.AlreadyExists},
		{apperror.ParentNotFound("p1"), codes.NotFound},
		{apperror.InsufficientStock("v1", 1, 0, 2), codes.FailedPrecondition},
		{apperror.SameBranchTransfer("b1"), codes.InvalidArgument},
		{apperror.InvalidState("transfer", "t1", "completed", "approve"), codes.FailedPrecondition},
		{fmt.Errorf("tx: %w", apperror.ConcurrentModification("locked")), codes.Aborted},
		{apperror.EntityNotVisible("variant", "v1", "b2"), codes.PermissionDenied},
		{apperror.DuplicateRequest("k"), codes.AlreadyExists},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("disk on fire"), codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, status.Code(ToStatus(tc.err)), tc.err.Error())
	}
}

func TestInternalErrorsAreMasked(t *testing.T) {
	st, _ := status.FromError(ToStatus(errors.New("pq: password authentication failed")))
	assert.Equal(t, "internal error", st.Message())
	assert.NoError(t, ToStatus(nil))
}

func TestJSONCodecIsRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)

	type msg struct {
		ID string `json:"id"`
	}
	data, err := codec.Marshal(&msg{ID: "x"})
	require.NoError(t, err)

	var out msg
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, "x", out.ID)
	assert.NoError(t, codec.Unmarshal(nil, &out))
}

func TestContextInterceptorScopesBranch(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(auth.BranchHeader, "b-7", auth.UserHeader, "u-1"))
	interceptor := ContextInterceptor(logger.NewNop())

	var seenBranch, seenUser string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, func(ctx context.Context, req interface{}) (interface{}, error) {
		seenBranch = auth.GetBranchID(ctx)
		seenUser = auth.GetUserID(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "b-7", seenBranch)
	assert.Equal(t, "u-1", seenUser)

	_, err = RequireBranch(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestBranchFromContextWinsOverMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(BranchHeader, "from-md", UserHeader, "u-md"))
	assert.Equal(t, "from-md", GetBranchID(ctx))
	assert.Equal(t, "u-md", GetUserID(ctx))

	ctx = WithBranch(ctx, "from-ctx", "u-ctx")
	assert.Equal(t, "from-ctx", GetBranchID(ctx))
	assert.Equal(t, "u-ctx", GetUserID(ctx))
}

func TestMissingBranchIsEmpty(t *testing.T) {
	assert.Equal(t, "", GetBranchID(context.Background()))
}

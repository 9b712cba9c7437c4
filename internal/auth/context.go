package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

const (
	BranchHeader = "x-branch-id"
	UserHeader   = "x-user-id"
)

type contextKey string

const (
	branchKey contextKey = "branch_id"
	userKey   contextKey = "user_id"
)

// WithBranch binds the requesting branch and user to ctx. Every request
// carries its own scope; nothing is kept process-wide.
func WithBranch(ctx context.Context, branchID, userID string) context.Context {
	ctx = context.WithValue(ctx, branchKey, branchID)
	return context.WithValue(ctx, userKey, userID)
}

// GetBranchID returns the branch set by the interceptor, falling back to
// incoming metadata.
func GetBranchID(ctx context.Context) string {
	if val, ok := ctx.Value(branchKey).(string); ok && val != "" {
		return val
	}
	return fromMetadata(ctx, BranchHeader)
}

func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userKey).(string); ok && val != "" {
		return val
	}
	return fromMetadata(ctx, UserHeader)
}

func fromMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(key); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

package rpc

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ContextInterceptor copies the branch and user headers into the request
// context and logs failed calls.
func ContextInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = auth.WithBranch(ctx, auth.GetBranchID(ctx), auth.GetUserID(ctx))

		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			code := status.Code(err)
			fields := []zap.Field{
				zap.String("method", info.FullMethod),
				zap.String("code", code.String()),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			}
			if code == codes.Internal || code == codes.Unknown {
				log.Error("rpc failed", fields...)
			} else {
				log.Debug("rpc rejected", fields...)
			}
		}
		return resp, err
	}
}

// RequireBranch returns the requesting branch or an Unauthenticated status.
func RequireBranch(ctx context.Context) (string, error) {
	branchID := auth.GetBranchID(ctx)
	if branchID == "" {
		return "", status.Error(codes.Unauthenticated, "missing branch context")
	}
	return branchID, nil
}

package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"rental-market-backend/internal/logger"
)

// UnaryLogging logs method, status code and latency of every unary RPC
func UnaryLogging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(info.FullMethod, start, err)
		return resp, err
	}
}

func StreamLogging() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(info.FullMethod, start, err)
		return err
	}
}

func logCall(method string, start time.Time, err error) {
	code := status.Code(err)
	args := []any{"method", method, "code", code.String(), "duration", time.Since(start)}
	if err != nil {
		logger.Warn("gRPC call failed", append(args, "error", err)...)
		return
	}
	logger.Debug("gRPC call", args...)
}

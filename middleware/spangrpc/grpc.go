// Package spangrpc provides gRPC server instrumentation on top of spanline
// spans.
//
// Server instrumentation using interceptors:
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(spangrpc.UnaryServerInterceptor(logger)),
//	    grpc.StreamInterceptor(spangrpc.StreamServerInterceptor(logger)),
//	)
package spangrpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/zenlab/spanline"
)

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that runs
// every RPC inside a span named after the full method. The span records the
// gRPC status code and latency on completion, and the handler's context
// carries the span so events emitted inside the RPC inherit its attributes.
func UnaryServerInterceptor(logger *spanline.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, span := logger.Start(ctx, "rpc",
			zap.String("grpc_method", info.FullMethod),
		)
		defer span.End()

		start := time.Now()
		resp, err := handler(ctx, req)

		span.Record(
			zap.String("grpc_code", status.Code(err).String()),
			zap.Float64("latency_ms", float64(time.Since(start))/float64(time.Millisecond)),
		)
		if err != nil {
			logger.Error(ctx, "rpc failed", err)
		} else {
			logger.Info(ctx, "rpc handled")
		}
		return resp, err
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor with the
// same behavior as the unary variant. The wrapped stream exposes the span's
// context to the handler.
func StreamServerInterceptor(logger *spanline.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, span := logger.Start(ss.Context(), "rpc",
			zap.String("grpc_method", info.FullMethod),
			zap.Bool("grpc_stream", true),
		)
		defer span.End()

		start := time.Now()
		err := handler(srv, &spanStream{ServerStream: ss, ctx: ctx})

		span.Record(
			zap.String("grpc_code", status.Code(err).String()),
			zap.Float64("latency_ms", float64(time.Since(start))/float64(time.Millisecond)),
		)
		if err != nil {
			logger.Error(ctx, "rpc failed", err)
		} else {
			logger.Info(ctx, "rpc handled")
		}
		return err
	}
}

type spanStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *spanStream) Context() context.Context { return s.ctx }

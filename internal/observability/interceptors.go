package observability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"sense-adaptive-core/internal/observability/metrics"
)

// UnaryServerInterceptor records latency and status for every unary call.
func UnaryServerInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		observe(ctx, m, info.FullMethod, "unary", start, err)
		return resp, err
	}
}

// StreamServerInterceptor records latency and status for every stream.
func StreamServerInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		observe(ss.Context(), m, info.FullMethod, "stream", start, err)
		return err
	}
}

func observe(ctx context.Context, m *metrics.Metrics, method, kind string, start time.Time, err error) {
	duration := time.Since(start)
	code := status.Code(err)
	m.RecordGRPCCall(method, code.String(), duration.Seconds())

	ev := log.WithLevel(levelFor(code)).
		Str("method", method).
		Str("kind", kind).
		Str("code", code.String()).
		Dur("duration", duration)
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		ev = ev.Str("peer", p.Addr.String())
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("gRPC call")
}

// levelFor keeps client mistakes out of the error log.
func levelFor(code codes.Code) zerolog.Level {
	switch code {
	case codes.OK:
		return zerolog.InfoLevel
	case codes.InvalidArgument, codes.NotFound, codes.Canceled, codes.DeadlineExceeded,
		codes.PermissionDenied, codes.Unauthenticated, codes.FailedPrecondition:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

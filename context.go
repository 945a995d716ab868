package spanline

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is an unexported type for context keys defined in this package.
// This prevents collisions with keys defined in other packages.
type contextKey string

const (
	spanKey      contextKey = "span"
	requestIDKey contextKey = "request_id"
)

// ContextWithSpan returns a context carrying span as the current span.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanKey, span)
}

// SpanFromContext returns the current span, or nil when ctx carries none.
func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	if s, ok := ctx.Value(spanKey).(*Span); ok {
		return s
	}
	return nil
}

// SpanIDFromContext returns the current span's id, or zero when there is no
// current span or it has already ended.
func SpanIDFromContext(ctx context.Context) SpanID {
	s := SpanFromContext(ctx)
	if s == nil || s.ended.Load() {
		return 0
	}
	return s.id
}

// WithRequestID adds a request ID to the context for handlers that want to
// record it on spans or events.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// extractTraceFields pulls OTel trace correlation ids from context.
// Lazily allocates only when a valid span context is present.
func extractTraceFields(ctx context.Context) []zap.Field {
	if ctx == nil || ctx == context.Background() || ctx == context.TODO() {
		return nil
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	}
}

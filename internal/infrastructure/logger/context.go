package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	runIDKey
	orderIDKey
)

// WithContext stores l in ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID tags ctx and l with the HTTP request id.
func WithRequestID(ctx context.Context, l *zap.Logger, id string) (context.Context, *zap.Logger) {
	return withID(ctx, l, requestIDKey, "request_id", id)
}

// WithRunID tags ctx and l with an enrichment or pipeline run id.
func WithRunID(ctx context.Context, l *zap.Logger, id string) (context.Context, *zap.Logger) {
	return withID(ctx, l, runIDKey, "run_id", id)
}

// WithOrderID tags ctx and l with the order being enriched.
func WithOrderID(ctx context.Context, l *zap.Logger, id string) (context.Context, *zap.Logger) {
	return withID(ctx, l, orderIDKey, "order_id", id)
}

// The returned logger is also stored in the returned context.
func withID(ctx context.Context, l *zap.Logger, key contextKey, field, id string) (context.Context, *zap.Logger) {
	if l == nil {
		l = FromContext(ctx)
	}
	l = l.With(zap.String(field, id))
	ctx = context.WithValue(ctx, key, id)
	return WithContext(ctx, l), l
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

// RunID returns the run id stored in ctx, or "".
func RunID(ctx context.Context) string { return stringValue(ctx, runIDKey) }

// OrderID returns the order id stored in ctx, or "".
func OrderID(ctx context.Context) string { return stringValue(ctx, orderIDKey) }

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithTraceContext adds trace_id and span_id from the active span in ctx.
// l is returned unchanged when ctx carries no valid span.
func WithTraceContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// L returns the logger stored in ctx with trace correlation fields added.
//
//	logger.L(ctx).Warn("fee lookup failed", zap.Error(err))
func L(ctx context.Context) *zap.Logger {
	return WithTraceContext(ctx, FromContext(ctx))
}

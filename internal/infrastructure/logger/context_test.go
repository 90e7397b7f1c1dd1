package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferedLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	return zap.New(core), &buf
}

func TestWithContext(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx := WithContext(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	// Should return a no-op logger
	assert.NotNil(t, FromContext(context.Background()))
}

func TestContextIDs(t *testing.T) {
	base, buf := bufferedLogger()
	ctx := context.Background()

	ctx, _ = WithRequestID(ctx, base, "req-1")
	ctx, runLogger := WithRunID(ctx, base, "run-1")
	ctx, orderLogger := WithOrderID(ctx, runLogger, "order-1")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "run-1", RunID(ctx))
	assert.Equal(t, "order-1", OrderID(ctx))
	assert.Same(t, orderLogger, FromContext(ctx))

	orderLogger.Info("resolved")
	output := buf.String()
	assert.Contains(t, output, `"run_id":"run-1"`)
	assert.Contains(t, output, `"order_id":"order-1"`)
}

func TestContextIDs_NotFound(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, RunID(ctx))
	assert.Empty(t, OrderID(ctx))
}

func TestL_AddsTraceContext(t *testing.T) {
	base, buf := bufferedLogger()

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx, _ = WithRequestID(ctx, base, "req-9")

	L(ctx).Info("message", zap.String("extra_field", "x"))

	output := buf.String()
	assert.Contains(t, output, `"trace_id":"0102030405060708090a0b0c0d0e0f10"`)
	assert.Contains(t, output, `"span_id":"0102030405060708"`)
	assert.Contains(t, output, `"request_id":"req-9"`)
	assert.Contains(t, output, `"extra_field":"x"`)
}

func TestL_NoSpan(t *testing.T) {
	base, buf := bufferedLogger()
	ctx := WithContext(context.Background(), base)

	L(ctx).Warn("plain")

	assert.NotContains(t, buf.String(), "trace_id")
	assert.Same(t, base, WithTraceContext(ctx, base))
}

func TestL_WithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Info("dropped")
	})
}

func TestWithRunID_NilLoggerUsesContext(t *testing.T) {
	base, buf := bufferedLogger()
	ctx := WithContext(context.Background(), base)

	ctx, runLogger := WithRunID(ctx, nil, "run-7")
	runLogger.Info("started")

	assert.Equal(t, "run-7", RunID(ctx))
	assert.Contains(t, buf.String(), `"run_id":"run-7"`)
}

package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/infrastructure/telemetry"
)

func restoreGlobalTracer(t *testing.T) {
	t.Helper()
	original := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(original) })
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:     false,
		ServiceName: "order-profit",
	}, zap.NewNop())

	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.False(t, tp.EnableSpanProfiles())
}

func TestTracerProvider_NilSafe(t *testing.T) {
	var tp *telemetry.TracerProvider
	assert.False(t, tp.IsEnabled())
	assert.False(t, tp.EnableSpanProfiles())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracerProvider_NilLogger(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{}, nil)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
}

func TestTracerProviderWithExporter_RecordsSpans(t *testing.T) {
	restoreGlobalTracer(t)
	sr := tracetest.NewSpanRecorder()

	tp := telemetry.NewTracerProviderWithExporter(telemetry.Config{
		ServiceName:   "order-profit",
		SamplingRatio: 1.0,
	}, sr, nil)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	assert.True(t, tp.IsEnabled())

	_, span := telemetry.StartServiceSpan(context.Background(), "profit", "calculate")
	span.End()
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "profit.calculate", spans[0].Name())
}

func TestTracerProviderWithExporter_NeverSample(t *testing.T) {
	restoreGlobalTracer(t)
	sr := tracetest.NewSpanRecorder()

	tp := telemetry.NewTracerProviderWithExporter(telemetry.Config{SamplingRatio: 0}, sr, nil)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := otel.Tracer("test").Start(context.Background(), "dropped")
	span.End()

	assert.False(t, span.SpanContext().IsSampled())
	assert.Empty(t, sr.Ended())
}

func TestEnableSpanProfiles_Idempotent(t *testing.T) {
	restoreGlobalTracer(t)
	tp := telemetry.NewTracerProviderWithExporter(telemetry.Config{SamplingRatio: 1}, tracetest.NewSpanRecorder(), nil)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	assert.True(t, tp.EnableSpanProfiles())
	assert.True(t, tp.EnableSpanProfiles())

	_, span := telemetry.StartSpan(context.Background(), "enrichment.run")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}

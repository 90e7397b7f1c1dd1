// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling for the order-profit service.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// shutdownTimeout bounds the final flush of every provider.
const shutdownTimeout = 10 * time.Second

// Config configures span export.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64 // 1 samples everything, 0 nothing
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
}

// TracerProvider owns the SDK tracer provider. Spans are always started
// through the global provider, so a disabled TracerProvider leaves otel's
// no-op in place and instrumented code needs no checks.
type TracerProvider struct {
	provider     *sdktrace.TracerProvider
	logger       *zap.Logger
	profilesOnce sync.Once
	profiles     bool
}

// NewTracerProvider batches spans to an OTLP gRPC collector.
func NewTracerProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*TracerProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("Tracing disabled, using no-op tracer provider")
		return &TracerProvider{logger: logger}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}

	tp := install(logger,
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRatio)),
	)
	logger.Info("Tracing enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return tp, nil
}

// NewTracerProviderWithExporter installs an enabled provider around
// processor, typically a tracetest.SpanRecorder.
func NewTracerProviderWithExporter(cfg Config, processor sdktrace.SpanProcessor, logger *zap.Logger) *TracerProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return install(logger,
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithSampler(sampler(cfg.SamplingRatio)),
	)
}

// install makes a new SDK provider global along with W3C trace context and
// baggage propagation, so otelgin and the Linnworks client agree on headers.
func install(logger *zap.Logger, opts ...sdktrace.TracerProviderOption) *TracerProvider {
	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &TracerProvider{provider: provider, logger: logger}
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func newResource(serviceName, serviceVersion string) (*resource.Resource, error) {
	if serviceVersion == "" {
		serviceVersion = "dev"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// IsEnabled reports whether spans are exported
func (tp *TracerProvider) IsEnabled() bool {
	return tp != nil && tp.provider != nil
}

// EnableSpanProfiles labels pprof samples with the active span ID so
// Pyroscope can link a slow enrichment span to its CPU profile. It reports
// whether span profiles are on. Start the profiler first.
func (tp *TracerProvider) EnableSpanProfiles() bool {
	if !tp.IsEnabled() {
		return false
	}
	tp.profilesOnce.Do(func() {
		otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp.provider))
		tp.profiles = true
		tp.logger.Info("Span profiles enabled")
	})
	return tp.profiles
}

// ForceFlush exports every finished span
func (tp *TracerProvider) ForceFlush(ctx context.Context) error {
	if !tp.IsEnabled() {
		return nil
	}
	return tp.provider.ForceFlush(ctx)
}

// Shutdown flushes and stops the exporter, bounded by shutdownTimeout.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if !tp.IsEnabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := tp.provider.Shutdown(ctx); err != nil {
		tp.logger.Error("Error shutting down tracer provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	tp.logger.Info("Tracer provider shut down")
	return nil
}

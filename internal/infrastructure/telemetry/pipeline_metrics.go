package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// PipelineMetrics tracks enrichment runs, upstream calls and profit computation.
type PipelineMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	ordersEnrichedTotal *Counter
	upstreamCallsTotal  *Counter
	profitComputedTotal *Counter
	feeCacheTotal       *Counter

	runDuration      *Histogram
	upstreamDuration *Histogram
}

// PipelineMetricsConfig holds configuration for pipeline metrics.
type PipelineMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewPipelineMetrics creates a new PipelineMetrics instance.
func NewPipelineMetrics(cfg PipelineMetricsConfig) (*PipelineMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PipelineMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	pm.ordersEnrichedTotal, err = NewCounter(
		cfg.Meter,
		"profit_orders_enriched_total",
		"Total number of order identifiers enriched, by outcome",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	pm.upstreamCallsTotal, err = NewCounter(
		cfg.Meter,
		"profit_upstream_calls_total",
		"Total number of upstream API calls, by call and outcome",
		"{calls}",
	)
	if err != nil {
		return nil, err
	}

	pm.profitComputedTotal, err = NewCounter(
		cfg.Meter,
		"profit_computed_total",
		"Total number of profit results computed, by marketplace class",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	pm.feeCacheTotal, err = NewCounter(
		cfg.Meter,
		"profit_fee_cache_lookups_total",
		"Fee lookup cache hits and misses",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}

	pm.runDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "profit_enrichment_run_duration_seconds",
		Description: "Wall time of an enrichment run including pacing delays",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	pm.upstreamDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "profit_upstream_call_duration_seconds",
		Description: "Latency of upstream API calls",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// Outcome labels a pipeline step result.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// OutcomeOf maps an error to an outcome label.
func OutcomeOf(err error) Outcome {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeSuccess
}

// RecordOrderEnriched records one order identifier's final outcome.
func (pm *PipelineMetrics) RecordOrderEnriched(ctx context.Context, outcome Outcome) {
	pm.ordersEnrichedTotal.Inc(ctx, AttrOutcome.String(string(outcome)))
}

// RecordUpstreamCall records an upstream call and its latency.
func (pm *PipelineMetrics) RecordUpstreamCall(ctx context.Context, call string, d time.Duration, err error) {
	pm.upstreamCallsTotal.Inc(ctx,
		AttrUpstreamCall.String(call),
		AttrOutcome.String(string(OutcomeOf(err))),
	)
	pm.upstreamDuration.RecordDuration(ctx, d, AttrUpstreamCall.String(call))
}

// RecordRun records the wall time of a whole enrichment run.
func (pm *PipelineMetrics) RecordRun(ctx context.Context, d time.Duration) {
	pm.runDuration.RecordDuration(ctx, d)
}

// RecordProfitComputed records one profit computation.
func (pm *PipelineMetrics) RecordProfitComputed(ctx context.Context, class string) {
	pm.profitComputedTotal.Inc(ctx, AttrMarketplaceClass.String(class))
}

// RecordFeeCacheLookup records a fee cache hit or miss.
func (pm *PipelineMetrics) RecordFeeCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	pm.feeCacheTotal.Inc(ctx, AttrCacheResult.String(result))
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewPipelineMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

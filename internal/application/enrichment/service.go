// Package enrichment turns order identifiers into enriched records by
// chaining the order-item resolver and the fee/cost lookup per order.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/infrastructure/logger"
	"github.com/orderprofit/backend/internal/infrastructure/pacing"
	"github.com/orderprofit/backend/internal/infrastructure/telemetry"
)

// Upstream call names used for metrics labels.
const (
	callResolveOrderItem = "resolve_order_item"
	callLookupCosts      = "lookup_product_costs"
)

// Config controls batching and pacing of upstream calls.
type Config struct {
	// BatchSize is the number of orders processed concurrently per batch
	BatchSize int
	// CallSpacing is the minimum gap between the starts of two orders
	CallSpacing time.Duration
	// LookupDelay is the wait between resolving an order and looking up its costs
	LookupDelay time.Duration
	// BatchPause is the wait between two batches
	BatchPause time.Duration
}

// DefaultConfig returns the pacing used against the production API.
func DefaultConfig() Config {
	return Config{
		BatchSize:   5,
		CallSpacing: 200 * time.Millisecond,
		LookupDelay: 200 * time.Millisecond,
		BatchPause:  1000 * time.Millisecond,
	}
}

// Run is the outcome of one Enrich call.
type Run struct {
	RunID      uuid.UUID                 `json:"run_id"`
	Results    []profit.EnrichmentResult `json:"results"`
	Processed  int                       `json:"processed"`
	Succeeded  int                       `json:"succeeded"`
	Failed     int                       `json:"failed"`
	Batches    int                       `json:"batches"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
}

// ByOrderID indexes results by order id. When an id was submitted more
// than once the last result wins.
func (r *Run) ByOrderID() map[string]profit.EnrichmentResult {
	out := make(map[string]profit.EnrichmentResult, len(r.Results))
	for _, res := range r.Results {
		out[res.OrderID] = res
	}
	return out
}

// Service is the enrichment orchestrator.
type Service struct {
	resolver integration.OrderItemResolver
	fees     integration.FeeLookupClient
	cfg      Config
	logger   *zap.Logger
	metrics  *telemetry.PipelineMetrics
	now      func() time.Time
}

// NewService creates an enrichment service. Non-positive BatchSize falls
// back to the default.
func NewService(resolver integration.OrderItemResolver, fees integration.FeeLookupClient, cfg Config, zapLogger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Service{
		resolver: resolver,
		fees:     fees,
		cfg:      cfg,
		logger:   zapLogger.Named("enrichment"),
		now:      time.Now,
	}
}

// SetPipelineMetrics sets the metrics recorder (optional)
func (s *Service) SetPipelineMetrics(m *telemetry.PipelineMetrics) {
	s.metrics = m
}

// Config returns the effective batching configuration
func (s *Service) Config() Config {
	return s.cfg
}

// Enrich resolves and enriches every order id. Only a missing credential or
// a nil id list fail the call; per-order failures are reported in the
// returned results. Results follow input order.
//
// Batches run one after another. Within a batch every order runs
// concurrently, with starts spaced CallSpacing apart in input order.
// Cancelling ctx stops new work and marks the unstarted orders as failed.
func (s *Service) Enrich(ctx context.Context, credential string, orderIDs []string) (*Run, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, profit.ErrMissingCredential
	}
	if orderIDs == nil {
		return nil, profit.ErrMissingOrderIDs
	}

	run := &Run{
		RunID:     uuid.New(),
		Results:   make([]profit.EnrichmentResult, len(orderIDs)),
		StartedAt: s.now(),
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "enrichment", "enrich")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRunID, run.RunID.String(),
		telemetry.SpanAttrOrderCount, len(orderIDs),
		telemetry.SpanAttrBatchSize, s.cfg.BatchSize,
	)

	ctx, runLogger := logger.WithRunID(ctx, s.logger, run.RunID.String())
	runLogger.Info("enrichment run started",
		zap.Int("orders", len(orderIDs)),
		zap.Int("batch_size", s.cfg.BatchSize),
	)

	pacer := pacing.NewPacer(s.cfg.CallSpacing)
	batches := partition(len(orderIDs), s.cfg.BatchSize)
	run.Batches = len(batches)

	for i, b := range batches {
		if i > 0 {
			telemetry.AddEvent(span, "batch_pause", telemetry.SpanAttrBatchIndex, i)
			if err := pacing.Sleep(ctx, s.cfg.BatchPause); err != nil {
				s.failRange(run, orderIDs, b.start, len(orderIDs), err)
				break
			}
		}
		if err := s.runBatch(ctx, pacer, credential, orderIDs, b, i, run.Results); err != nil {
			s.failRange(run, orderIDs, b.end, len(orderIDs), err)
			break
		}
	}

	for _, res := range run.Results {
		run.Processed++
		if res.Succeeded {
			run.Succeeded++
		} else {
			run.Failed++
		}
	}
	run.FinishedAt = s.now()

	telemetry.SetAttributes(span, "succeeded", run.Succeeded, "failed", run.Failed)
	if s.metrics != nil {
		s.metrics.RecordRun(ctx, run.FinishedAt.Sub(run.StartedAt))
	}
	runLogger.Info("enrichment run finished",
		zap.Int("processed", run.Processed),
		zap.Int("succeeded", run.Succeeded),
		zap.Int("failed", run.Failed),
		zap.Int("batches", run.Batches),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

type batchRange struct {
	start, end int
}

// partition splits n items into consecutive ranges of at most size.
func partition(n, size int) []batchRange {
	if n == 0 {
		return nil
	}
	out := make([]batchRange, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, batchRange{start: start, end: end})
	}
	return out
}

type indexedResult struct {
	index  int
	result profit.EnrichmentResult
}

// runBatch processes one batch and writes each result at its input index.
// It returns a non-nil error only when ctx ended before every order in the
// batch was started; orders never started are marked failed here.
func (s *Service) runBatch(ctx context.Context, pacer *pacing.Pacer, credential string, ids []string, b batchRange, batchIndex int, results []profit.EnrichmentResult) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "enrichment", "batch")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrBatchIndex, batchIndex,
		telemetry.SpanAttrBatchSize, b.end-b.start,
	)

	collected := make(chan indexedResult, b.end-b.start)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.end - b.start)

	var launchErr error
	for i := b.start; i < b.end; i++ {
		if err := pacer.Acquire(ctx); err != nil {
			launchErr = err
			for j := i; j < b.end; j++ {
				collected <- indexedResult{j, profit.NewFailedResult(ids[j], nil, fmt.Errorf("not started: %w", err))}
			}
			break
		}
		idx := i
		g.Go(func() error {
			collected <- indexedResult{idx, s.enrichOne(gctx, credential, ids[idx])}
			return nil
		})
	}

	_ = g.Wait()
	close(collected)
	for r := range collected {
		results[r.index] = r.result
	}

	if launchErr != nil {
		telemetry.RecordError(span, launchErr)
	}
	return launchErr
}

// enrichOne runs the resolver then the fee lookup for a single order. A
// resolver failure short-circuits so no fee lookup is attempted.
func (s *Service) enrichOne(ctx context.Context, credential, orderID string) profit.EnrichmentResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "enrichment", "order")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, orderID)

	ctx, orderLogger := logger.WithOrderID(ctx, logger.FromContext(ctx), orderID)

	item, err := s.resolve(ctx, credential, orderID)
	if err != nil {
		return s.fail(ctx, span, orderLogger, orderID, nil, err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrProductID, item.ProductID)
	if item.Quantity != nil {
		telemetry.SetAttribute(span, telemetry.SpanAttrQuantity, *item.Quantity)
	}

	if err := pacing.Sleep(ctx, s.cfg.LookupDelay); err != nil {
		return s.fail(ctx, span, orderLogger, orderID, item, err)
	}

	start := s.now()
	costs, err := s.fees.LookupProductCosts(ctx, credential, item.ProductID)
	s.recordCall(ctx, callLookupCosts, start, err)
	if err != nil {
		return s.fail(ctx, span, orderLogger, orderID, item, fmt.Errorf("lookup costs for %s: %w", item.ProductID, err))
	}
	if costs == nil {
		costs = &profit.ProductCosts{}
	}

	result := profit.NewEnrichedResult(orderID, *item, *costs)
	if s.metrics != nil {
		s.metrics.RecordOrderEnriched(ctx, telemetry.OutcomeSuccess)
	}
	orderLogger.Debug("order enriched",
		zap.String("product_id", item.ProductID),
		zap.Bool("has_costs", costs.HasData()),
	)
	return result
}

func (s *Service) resolve(ctx context.Context, credential, orderID string) (*profit.OrderItem, error) {
	start := s.now()
	item, err := s.resolver.ResolveOrderItem(ctx, credential, orderID)
	s.recordCall(ctx, callResolveOrderItem, start, err)
	if err != nil {
		return nil, fmt.Errorf("resolve order item: %w", err)
	}
	if item == nil || strings.TrimSpace(item.ProductID) == "" {
		return nil, integration.ErrProductNotResolved
	}
	return item, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, l *zap.Logger, orderID string, item *profit.OrderItem, err error) profit.EnrichmentResult {
	telemetry.RecordError(span, err)
	if s.metrics != nil {
		s.metrics.RecordOrderEnriched(ctx, telemetry.OutcomeFailed)
	}
	l.Warn("order enrichment failed", zap.Error(err))
	return profit.NewFailedResult(orderID, item, err)
}

func (s *Service) recordCall(ctx context.Context, call string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordUpstreamCall(ctx, call, s.now().Sub(start), err)
	}
}

// failRange marks orders [from, to) that have no result yet as failed.
func (s *Service) failRange(run *Run, ids []string, from, to int, cause error) {
	for i := from; i < to; i++ {
		if run.Results[i].OrderID != "" || run.Results[i].Error != "" {
			continue
		}
		run.Results[i] = profit.NewFailedResult(ids[i], nil, fmt.Errorf("not started: %w", cause))
	}
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		s.logger.Warn("enrichment run cancelled", zap.Int("unstarted", to-from), zap.Error(cause))
	}
}

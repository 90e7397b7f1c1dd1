// Package pipeline runs the full profit report: order search, enrichment,
// profit calculation and aggregation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/application/enrichment"
	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/report"
	"github.com/orderprofit/backend/internal/infrastructure/logger"
	"github.com/orderprofit/backend/internal/infrastructure/telemetry"
)

// Enricher enriches order ids with product and cost data
type Enricher interface {
	Enrich(ctx context.Context, credential string, orderIDs []string) (*enrichment.Run, error)
}

// Calculator computes profit for enriched orders
type Calculator interface {
	Calculate(ctx context.Context, orders []profit.Order, enrichments []profit.EnrichmentResult) ([]profit.ProfitedOrder, error)
}

// TokenSource supplies a server-side upstream credential
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Request selects the orders of one pipeline run
type Request struct {
	// Credential is the upstream token; blank uses the server-side TokenSource
	Credential string
	From       time.Time
	To         time.Time
	Filters    []integration.SearchFilter
	// MaxPages caps the order search; 0 means no limit
	MaxPages int
}

// Counts summarizes a run
type Counts struct {
	Orders   int `json:"orders"`
	Enriched int `json:"enriched"`
	Failed   int `json:"failed"`
	Profited int `json:"profited"`
}

// Result is the outcome of one pipeline run
type Result struct {
	RunID      uuid.UUID               `json:"run_id"`
	Rows       []profit.ProfitedOrder  `json:"rows"`
	Monthly    []report.MonthlySummary `json:"monthly"`
	Sources    []report.SourceSummary  `json:"sources"`
	Counts     Counts                  `json:"counts"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

// Service chains the order source, enrichment and profit calculation
type Service struct {
	orders     integration.OrderSource
	enricher   Enricher
	calculator Calculator
	tokens     TokenSource
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a pipeline service. tokens may be nil, in which case
// every request must carry its own credential.
func NewService(orders integration.OrderSource, enricher Enricher, calculator Calculator, tokens TokenSource, zapLogger *zap.Logger) *Service {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Service{
		orders:     orders,
		enricher:   enricher,
		calculator: calculator,
		tokens:     tokens,
		logger:     zapLogger.Named("pipeline"),
		now:        time.Now,
	}
}

// Run fetches processed orders in the requested range, enriches them,
// computes profit and aggregates the results
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	started := s.now()
	ctx, span := telemetry.StartServiceSpan(ctx, "pipeline", "run")
	defer span.End()

	credential, err := s.credential(ctx, req.Credential)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	search := &integration.OrderSearchRequest{From: req.From, To: req.To, Filters: req.Filters}
	if err := search.Validate(); err != nil {
		return nil, err
	}

	orders, err := integration.FetchAll(ctx, s.orders, credential, search, req.MaxPages)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("search processed orders: %w", err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderCount, len(orders))

	result := &Result{
		Rows:      []profit.ProfitedOrder{},
		Monthly:   []report.MonthlySummary{},
		Sources:   []report.SourceSummary{},
		StartedAt: started,
	}
	result.Counts.Orders = len(orders)

	if len(orders) > 0 {
		ids := make([]string, len(orders))
		for i, o := range orders {
			ids[i] = o.OrderID
		}

		run, err := s.enricher.Enrich(ctx, credential, ids)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.RunID = run.RunID
		result.Counts.Enriched = run.Succeeded
		result.Counts.Failed = run.Failed

		ctx, _ = logger.WithRunID(ctx, s.logger, run.RunID.String())
		rows, err := s.calculator.Calculate(ctx, orders, run.Results)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.Rows = rows
		for _, r := range rows {
			if r.Profit != nil {
				result.Counts.Profited++
			}
		}
		result.Monthly = report.Summarize(rows)
		result.Sources = report.SummarizeBySource(rows)
	}
	if result.RunID == uuid.Nil {
		result.RunID = uuid.New()
	}

	result.FinishedAt = s.now()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRunID, result.RunID.String(),
		"pipeline.profited", result.Counts.Profited,
	)
	s.logger.Info("Pipeline run completed",
		zap.String("run_id", result.RunID.String()),
		zap.Int("orders", result.Counts.Orders),
		zap.Int("enriched", result.Counts.Enriched),
		zap.Int("failed", result.Counts.Failed),
		zap.Int("profited", result.Counts.Profited),
		zap.Duration("duration", result.FinishedAt.Sub(started)),
	)
	return result, nil
}

func (s *Service) credential(ctx context.Context, supplied string) (string, error) {
	if c := strings.TrimSpace(supplied); c != "" {
		return c, nil
	}
	if s.tokens == nil {
		return "", profit.ErrMissingCredential
	}
	return s.tokens.Token(ctx)
}

package profit

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared"
	"github.com/orderprofit/backend/internal/infrastructure/telemetry"
)

// Service computes profit for order batches and manages fee overrides.
type Service struct {
	engine    *Engine
	overrides profit.FeeOverrideRepository
	logger    *zap.Logger
	metrics   *telemetry.PipelineMetrics
}

// NewService creates a profit service. overrides may be nil, in which case
// no overrides apply and override management returns ErrServiceUnavailable.
func NewService(engine *Engine, overrides profit.FeeOverrideRepository, zapLogger *zap.Logger) *Service {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Service{engine: engine, overrides: overrides, logger: zapLogger.Named("profit")}
}

// SetPipelineMetrics sets the metrics recorder (optional)
func (s *Service) SetPipelineMetrics(m *telemetry.PipelineMetrics) {
	s.metrics = m
}

// Engine returns the underlying engine
func (s *Service) Engine() *Engine {
	return s.engine
}

// Calculate joins orders with their enrichment by order id and computes
// profit for every order whose enrichment succeeded. Orders without a
// successful enrichment keep a nil Profit. Current overrides apply.
func (s *Service) Calculate(ctx context.Context, orders []profit.Order, enrichments []profit.EnrichmentResult) ([]profit.ProfitedOrder, error) {
	byID := make(map[string]profit.EnrichmentResult, len(enrichments))
	for _, e := range enrichments {
		byID[e.OrderID] = e
	}

	rows := make([]profit.ProfitedOrder, len(orders))
	for i, o := range orders {
		rows[i] = profit.ProfitedOrder{Order: o}
		if e, ok := byID[o.OrderID]; ok {
			e := e
			rows[i].Enrichment = &e
		}
	}
	return s.Recalculate(ctx, rows)
}

// Recalculate recomputes profit for previously joined rows with the
// overrides currently stored. Input rows are not modified.
func (s *Service) Recalculate(ctx context.Context, rows []profit.ProfitedOrder) ([]profit.ProfitedOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "profit", "calculate")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderCount, len(rows))

	overrides, err := s.loadOverrides(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	out := make([]profit.ProfitedOrder, len(rows))
	computed := 0
	for i, row := range rows {
		out[i] = profit.ProfitedOrder{Order: row.Order, Enrichment: row.Enrichment}
		if row.Enrichment == nil || !row.Enrichment.Succeeded {
			continue
		}
		result := s.engine.ComputeWithOverrides(row.Order, *row.Enrichment, overrides)
		out[i].Profit = &result
		computed++
		if s.metrics != nil {
			s.metrics.RecordProfitComputed(ctx, result.Class.String())
		}
	}

	s.logger.Debug("profit calculated",
		zap.Int("orders", len(rows)),
		zap.Int("computed", computed),
		zap.Int("overrides", len(overrides)),
	)
	return out, nil
}

func (s *Service) loadOverrides(ctx context.Context) (profit.FeeOverrides, error) {
	if s.overrides == nil {
		return nil, nil
	}
	list, err := s.overrides.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fee overrides: %w", err)
	}
	return profit.NewFeeOverrides(list), nil
}

// ---------------------------------------------------------------------------
// Fee overrides
// ---------------------------------------------------------------------------

var errOverridesDisabled = fmt.Errorf("%w: fee override storage is not configured", shared.ErrServiceUnavailable)

// ListOverrides returns every stored override
func (s *Service) ListOverrides(ctx context.Context) ([]profit.FeeOverride, error) {
	if s.overrides == nil {
		return []profit.FeeOverride{}, nil
	}
	return s.overrides.List(ctx)
}

// SetOverride stores a fee percentage (0 to 100) for a source.
func (s *Service) SetOverride(ctx context.Context, source string, percent decimal.Decimal) (*profit.FeeOverride, error) {
	if s.overrides == nil {
		return nil, errOverridesDisabled
	}
	o, err := profit.NewFeeOverride(source, percent)
	if err != nil {
		return nil, err
	}
	if err := s.overrides.Upsert(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Info("fee override set", zap.String("source", o.Source), zap.String("percent", o.Percent.String()))
	return o, nil
}

// DeleteOverride removes the override for a source.
func (s *Service) DeleteOverride(ctx context.Context, source string) error {
	if s.overrides == nil {
		return errOverridesDisabled
	}
	key := profit.NormalizeName(source)
	if err := s.overrides.Delete(ctx, key); err != nil {
		if errors.Is(err, profit.ErrFeeOverrideNotFound) {
			return err
		}
		return fmt.Errorf("delete fee override %q: %w", key, err)
	}
	s.logger.Info("fee override deleted", zap.String("source", key))
	return nil
}

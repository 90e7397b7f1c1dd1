// Package profit applies marketplace-specific accounting rules to enriched
// orders and manages user fee overrides.
package profit

import (
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared/strategy"
)

// FormulaProvider looks up the profit formula for a marketplace class.
type FormulaProvider interface {
	GetProfitFormulaOrDefault(class profit.MarketplaceClass) strategy.ProfitFormulaStrategy
}

// Engine selects a formula by the order's marketplace class and computes
// its ProfitResult. It holds no mutable state.
type Engine struct {
	catalog  *profit.Catalog
	formulas FormulaProvider
}

// NewEngine creates an engine over a marketplace catalog and formula set
func NewEngine(catalog *profit.Catalog, formulas FormulaProvider) *Engine {
	return &Engine{catalog: catalog, formulas: formulas}
}

// Catalog returns the marketplace catalog
func (e *Engine) Catalog() *profit.Catalog {
	return e.catalog
}

// Compute returns the rounded ProfitResult for an order. Missing numeric
// inputs count as zero and an unmapped source uses the default formula with
// a zero fee rate.
func (e *Engine) Compute(order profit.Order, enrichment profit.EnrichmentResult) profit.ProfitResult {
	return e.ComputeWithOverrides(order, enrichment, nil)
}

// ComputeWithOverrides is Compute with user fee overrides. An override for
// the order source, or else for the resolved marketplace key, replaces the
// looked-up fee rate.
func (e *Engine) ComputeWithOverrides(order profit.Order, enrichment profit.EnrichmentResult, overrides profit.FeeOverrides) profit.ProfitResult {
	class := profit.ClassDefault
	feeKey := ""
	m, known := e.catalog.ResolveOrder(order.Source, order.SubSource)
	if known {
		class = m.Class
		feeKey = e.catalog.FeeKeyFor(m, order.SubSource)
	}

	rate := enrichment.FeeRate(feeKey)
	overridden := false
	if r, ok := overrides.RateFor(order.Source); ok {
		rate, overridden = r, true
	} else if known {
		if r, ok := overrides.RateFor(m.Key); ok {
			rate, overridden = r, true
		}
	}

	in := strategy.ProfitInput{
		TotalChargeIncVat: order.TotalChargeIncVat,
		Cost:              profit.OrZero(enrichment.CostAmount),
		Freight:           profit.OrZero(enrichment.FreightAmount),
		Courier:           profit.OrZero(enrichment.CourierAmount),
		DealPrice:         profit.OrZero(enrichment.DealPrice),
		FeeRate:           rate,
	}

	formula := e.formulas.GetProfitFormulaOrDefault(class)
	if formula == nil {
		return profit.ProfitResult{Class: class, FeeKey: feeKey, FeeRate: rate, OverrideApplied: overridden}
	}
	result := formula.Compute(in)
	result.FeeKey = feeKey
	result.FeeRate = rate
	result.OverrideApplied = overridden
	return result.Rounded()
}

package formula

import (
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// StandardFormula charges fee and VAT against the VAT-inclusive price.
// It serves both the default class and consolidator platforms, which differ
// only in how the fee key is picked.
type StandardFormula struct {
	strategy.BaseStrategy
	class profit.MarketplaceClass
}

// NewDefaultFormula creates the formula used by most marketplaces
func NewDefaultFormula() *StandardFormula {
	return &StandardFormula{
		BaseStrategy: strategy.NewBaseStrategy(
			"default",
			strategy.StrategyTypeProfit,
			"Fee and VAT charged against the VAT-inclusive selling price",
		),
		class: profit.ClassDefault,
	}
}

// NewConsolidatorFormula creates the formula for multi-retailer platforms
func NewConsolidatorFormula() *StandardFormula {
	return &StandardFormula{
		BaseStrategy: strategy.NewBaseStrategy(
			"consolidator",
			strategy.StrategyTypeProfit,
			"Default accounting with the fee rate of the retail partner named by the sub-source",
		),
		class: profit.ClassConsolidator,
	}
}

// Class returns the marketplace class
func (f *StandardFormula) Class() profit.MarketplaceClass {
	return f.class
}

// Compute applies the formula
func (f *StandardFormula) Compute(in strategy.ProfitInput) profit.ProfitResult {
	total := in.TotalChargeIncVat
	fee := total.Mul(in.FeeRate)
	vat := profit.VATPortion(total)
	totalCost := sum(in.Cost, in.Freight, in.Courier, fee, vat)

	return profit.ProfitResult{
		Class:             f.class,
		FeeRate:           in.FeeRate,
		SellingPriceExVat: total.Sub(vat),
		MarketplaceFee:    fee,
		VAT:               vat,
		TotalCost:         totalCost,
		Profit:            total.Sub(totalCost),
	}
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	out := decimal.Zero
	for _, v := range values {
		out = out.Add(v)
	}
	return out
}

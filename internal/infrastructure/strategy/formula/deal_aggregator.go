package formula

import (
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// DealAggregatorFormula sells at a deal price held on the product record
// rather than the charged amount. No VAT term applies.
type DealAggregatorFormula struct {
	strategy.BaseStrategy
}

// NewDealAggregatorFormula creates the deal-aggregator channel formula
func NewDealAggregatorFormula() *DealAggregatorFormula {
	return &DealAggregatorFormula{
		BaseStrategy: strategy.NewBaseStrategy(
			"deal_aggregator",
			strategy.StrategyTypeProfit,
			"Fee charged against the externally supplied deal price",
		),
	}
}

// Class returns the marketplace class
func (f *DealAggregatorFormula) Class() profit.MarketplaceClass {
	return profit.ClassDealAggregator
}

// Compute applies the formula
func (f *DealAggregatorFormula) Compute(in strategy.ProfitInput) profit.ProfitResult {
	fee := in.DealPrice.Mul(in.FeeRate)
	totalCost := sum(in.Cost, in.Freight, in.Courier, fee)

	return profit.ProfitResult{
		Class:             profit.ClassDealAggregator,
		FeeRate:           in.FeeRate,
		SellingPriceExVat: in.DealPrice,
		MarketplaceFee:    fee,
		VAT:               decimal.Zero,
		TotalCost:         totalCost,
		Profit:            in.DealPrice.Sub(totalCost),
	}
}

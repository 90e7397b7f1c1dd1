package formula

import (
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared/strategy"
)

// StockSyncFormula accounts a VAT-inclusive price ex-VAT. VAT is reported
// but is not part of the total cost.
type StockSyncFormula struct {
	strategy.BaseStrategy
}

// NewStockSyncFormula creates the stock-sync marketplace formula
func NewStockSyncFormula() *StockSyncFormula {
	return &StockSyncFormula{
		BaseStrategy: strategy.NewBaseStrategy(
			"stock_sync",
			strategy.StrategyTypeProfit,
			"Fee charged against the ex-VAT price; VAT excluded from total cost",
		),
	}
}

// Class returns the marketplace class
func (f *StockSyncFormula) Class() profit.MarketplaceClass {
	return profit.ClassStockSync
}

// Compute applies the formula
func (f *StockSyncFormula) Compute(in strategy.ProfitInput) profit.ProfitResult {
	exVat := profit.NetOfVAT(in.TotalChargeIncVat)
	fee := exVat.Mul(in.FeeRate)
	totalCost := sum(in.Cost, in.Freight, in.Courier, fee)

	return profit.ProfitResult{
		Class:             profit.ClassStockSync,
		FeeRate:           in.FeeRate,
		SellingPriceExVat: exVat,
		MarketplaceFee:    fee,
		VAT:               in.TotalChargeIncVat.Sub(exVat),
		TotalCost:         totalCost,
		Profit:            exVat.Sub(totalCost),
	}
}

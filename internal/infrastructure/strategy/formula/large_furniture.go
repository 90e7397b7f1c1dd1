package formula

import (
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// LargeFurnitureFormula re-prices the order through the channel: the fee is
// taken off the item total, standard VAT is added back, and the VAT contained
// in that channel price is deducted from profit.
//
// The secondary VAT term is derived from a price that already carries the
// primary one. This mirrors how the channel has been accounted so far and is
// awaiting confirmation from finance.
type LargeFurnitureFormula struct {
	strategy.BaseStrategy
}

// NewLargeFurnitureFormula creates the large-furniture channel formula
func NewLargeFurnitureFormula() *LargeFurnitureFormula {
	return &LargeFurnitureFormula{
		BaseStrategy: strategy.NewBaseStrategy(
			"large_furniture",
			strategy.StrategyTypeProfit,
			"Channel price with primary and secondary VAT terms; cost excludes courier",
		),
	}
}

// Class returns the marketplace class
func (f *LargeFurnitureFormula) Class() profit.MarketplaceClass {
	return profit.ClassLargeFurniture
}

// Compute applies the formula
func (f *LargeFurnitureFormula) Compute(in strategy.ProfitInput) profit.ProfitResult {
	itemTotal := in.TotalChargeIncVat
	fee := itemTotal.Mul(in.FeeRate)
	vatA := itemTotal.Mul(profit.StandardVATRate)
	channelPrice := itemTotal.Sub(fee).Add(vatA)
	vatB := profit.VATPortion(channelPrice)
	totalCost := sum(in.Cost, in.Freight)

	return profit.ProfitResult{
		Class:             profit.ClassLargeFurniture,
		FeeRate:           in.FeeRate,
		SellingPriceExVat: channelPrice.Sub(vatB),
		MarketplaceFee:    fee,
		VAT:               vatB,
		VATPrimary:        decimal.NewNullDecimal(vatA),
		VATSecondary:      decimal.NewNullDecimal(vatB),
		TotalCost:         totalCost,
		Profit:            channelPrice.Sub(totalCost).Sub(vatB),
	}
}

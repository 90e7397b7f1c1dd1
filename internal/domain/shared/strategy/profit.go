package strategy

import (
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/shopspring/decimal"
)

// ProfitInput carries the numeric inputs of a profit formula.
// Missing upstream values arrive here as zero.
type ProfitInput struct {
	TotalChargeIncVat decimal.Decimal
	Cost              decimal.Decimal
	Freight           decimal.Decimal
	Courier           decimal.Decimal
	DealPrice         decimal.Decimal
	FeeRate           decimal.Decimal
}

// ProfitFormulaStrategy computes fee, VAT, total cost and profit for one
// marketplace class. Results are unrounded; callers round once at the end.
type ProfitFormulaStrategy interface {
	Strategy
	// Class returns the marketplace class this formula serves
	Class() profit.MarketplaceClass
	// Compute applies the formula
	Compute(in ProfitInput) profit.ProfitResult
}

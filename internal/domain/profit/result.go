package profit

import "github.com/shopspring/decimal"

// ProfitResult is derived from an Order and its EnrichmentResult.
// It is never persisted on its own.
type ProfitResult struct {
	Class             MarketplaceClass    `json:"class"`
	FeeKey            string              `json:"fee_key,omitempty"`
	FeeRate           decimal.Decimal     `json:"fee_rate"`
	OverrideApplied   bool                `json:"override_applied"`
	SellingPriceExVat decimal.Decimal     `json:"selling_price_ex_vat"`
	MarketplaceFee    decimal.Decimal     `json:"marketplace_fee"`
	VAT               decimal.Decimal     `json:"vat"`
	VATPrimary        decimal.NullDecimal `json:"vat_primary"`
	VATSecondary      decimal.NullDecimal `json:"vat_secondary"`
	TotalCost         decimal.Decimal     `json:"total_cost"`
	Profit            decimal.Decimal     `json:"profit"`
}

// Rounded returns a copy with every monetary field rounded to currency
// precision. Formulas work at full precision and round only here.
func (r ProfitResult) Rounded() ProfitResult {
	out := r
	out.SellingPriceExVat = RoundCurrency(r.SellingPriceExVat)
	out.MarketplaceFee = RoundCurrency(r.MarketplaceFee)
	out.VAT = RoundCurrency(r.VAT)
	out.TotalCost = RoundCurrency(r.TotalCost)
	out.Profit = RoundCurrency(r.Profit)
	if r.VATPrimary.Valid {
		out.VATPrimary = decimal.NewNullDecimal(RoundCurrency(r.VATPrimary.Decimal))
	}
	if r.VATSecondary.Valid {
		out.VATSecondary = decimal.NewNullDecimal(RoundCurrency(r.VATSecondary.Decimal))
	}
	return out
}

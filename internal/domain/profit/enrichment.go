package profit

import (
	"github.com/shopspring/decimal"
)

// ProductCosts holds the cost and fee data stored against a product in the
// inventory system. Every amount is nullable because upstream properties are
// optional per product.
type ProductCosts struct {
	Cost      decimal.NullDecimal        `json:"cost"`
	Freight   decimal.NullDecimal        `json:"freight"`
	Courier   decimal.NullDecimal        `json:"courier"`
	DealPrice decimal.NullDecimal        `json:"deal_price"`
	FeeRates  map[string]decimal.Decimal `json:"fee_rates"`
}

// HasData reports whether any cost or fee property was found
func (c *ProductCosts) HasData() bool {
	return c.Cost.Valid || c.Freight.Valid || c.Courier.Valid || c.DealPrice.Valid || len(c.FeeRates) > 0
}

// OrderItem is the product line resolved for an order
type OrderItem struct {
	ProductID string              `json:"product_id"`
	Quantity  *int                `json:"quantity,omitempty"`
	UnitValue decimal.NullDecimal `json:"unit_value"`
}

// EnrichmentResult is the outcome of enriching one order identifier.
// Succeeded is true iff Error is empty and ProductID was resolved.
type EnrichmentResult struct {
	OrderID           string                     `json:"order_id"`
	ProductID         *string                    `json:"product_id"`
	Quantity          *int                       `json:"quantity"`
	UnitValue         decimal.NullDecimal        `json:"unit_value"`
	CostAmount        decimal.NullDecimal        `json:"cost"`
	FreightAmount     decimal.NullDecimal        `json:"freight"`
	CourierAmount     decimal.NullDecimal        `json:"courier"`
	DealPrice         decimal.NullDecimal        `json:"deal_price"`
	FeesByMarketplace map[string]decimal.Decimal `json:"fees_by_marketplace"`
	Error             string                     `json:"error,omitempty"`
	Succeeded         bool                       `json:"success"`
}

// NewEnrichedResult builds a successful result from a resolved item and its costs
func NewEnrichedResult(orderID string, item OrderItem, costs ProductCosts) EnrichmentResult {
	productID := item.ProductID
	fees := make(map[string]decimal.Decimal, len(costs.FeeRates))
	for k, v := range costs.FeeRates {
		fees[k] = v
	}
	r := EnrichmentResult{
		OrderID:           orderID,
		ProductID:         &productID,
		Quantity:          item.Quantity,
		UnitValue:         item.UnitValue,
		CostAmount:        costs.Cost,
		FreightAmount:     costs.Freight,
		CourierAmount:     costs.Courier,
		DealPrice:         costs.DealPrice,
		FeesByMarketplace: fees,
		Succeeded:         true,
	}
	if productID == "" {
		r.ProductID = nil
		r.Succeeded = false
		r.Error = "no product identifier resolved"
	}
	return r
}

// NewFailedResult builds a failed result. A product id resolved before the
// failure is kept so callers can see how far the order got.
func NewFailedResult(orderID string, item *OrderItem, err error) EnrichmentResult {
	r := EnrichmentResult{
		OrderID:           orderID,
		FeesByMarketplace: map[string]decimal.Decimal{},
		Error:             "unknown error",
	}
	if err != nil {
		r.Error = err.Error()
	}
	if item != nil && item.ProductID != "" {
		productID := item.ProductID
		r.ProductID = &productID
		r.Quantity = item.Quantity
		r.UnitValue = item.UnitValue
	}
	return r
}

// FeeRate returns the fee rate stored under key, or zero when absent
func (e EnrichmentResult) FeeRate(key string) decimal.Decimal {
	if key == "" || e.FeesByMarketplace == nil {
		return decimal.Zero
	}
	rate, ok := e.FeesByMarketplace[key]
	if !ok {
		return decimal.Zero
	}
	return rate
}

// ProductIDOrEmpty returns the resolved product id or an empty string
func (e EnrichmentResult) ProductIDOrEmpty() string {
	if e.ProductID == nil {
		return ""
	}
	return *e.ProductID
}

package linnworks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/shopspring/decimal"
)

const extendedPropertiesPath = "Inventory/GetInventoryItemExtendedProperties"

// LookupProductCosts reads the cost, freight, courier and marketplace fee
// properties stored against an inventory item
func (c *Client) LookupProductCosts(ctx context.Context, token, productID string) (*profit.ProductCosts, error) {
	body, err := c.doRequest(ctx, http.MethodPost, extendedPropertiesPath, token,
		getExtendedPropertiesRequest{ItemNumber: productID})
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	return parseProductCosts(body, c.catalog)
}

// parseProductCosts matches property names case-exact against the catalog.
// Unknown names are ignored, as is a response that is not an array.
func parseProductCosts(body []byte, catalog *profit.Catalog) (*profit.ProductCosts, error) {
	costs := &profit.ProductCosts{FeeRates: map[string]decimal.Decimal{}}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if len(trimmed) > 0 && !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: inventory properties are not JSON", integration.ErrPlatformInvalidResponse)
		}
		return costs, nil
	}

	var props []extendedProperty
	if err := json.Unmarshal(trimmed, &props); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	names := catalog.Properties()
	var fallbackCost decimal.NullDecimal
	for _, p := range props {
		name := p.name()
		if name == "" {
			continue
		}
		switch {
		case name == names.Cost:
			costs.Cost = profit.ParseAmount(p.value())
		case names.CostFallback != "" && name == names.CostFallback:
			fallbackCost = profit.ParseAmount(p.value())
		case name == names.Freight:
			costs.Freight = profit.ParseAmount(p.value())
		case name == names.Courier:
			costs.Courier = profit.ParseAmount(p.value())
		case names.DealPrice != "" && name == names.DealPrice:
			costs.DealPrice = profit.ParseAmount(p.value())
		default:
			key, ok := catalog.FeeKeyForProperty(name)
			if !ok {
				continue
			}
			if rate := profit.ParseRate(p.value()); rate.Valid {
				costs.FeeRates[key] = rate.Decimal
			}
		}
	}
	if !costs.Cost.Valid {
		costs.Cost = fallbackCost
	}

	return costs, nil
}

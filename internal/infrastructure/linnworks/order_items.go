package linnworks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/shopspring/decimal"
)

const orderItemsPath = "ProcessedOrders/GetReturnItemsInfo"

// productIDFields are tried in order on an order-item object
var productIDFields = []string{"SKU", "ItemNumber", "sku"}

// nestedItemFields hold item arrays whose first element may carry the SKU
var nestedItemFields = []string{"Items", "Data"}

// ResolveOrderItem returns the product line of a processed order
func (c *Client) ResolveOrderItem(ctx context.Context, token, orderID string) (*profit.OrderItem, error) {
	path := orderItemsPath + "?pkOrderId=" + url.QueryEscape(orderID)
	body, err := c.doRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, fmt.Errorf("order items: %w", err)
	}
	return parseOrderItem(body)
}

// parseOrderItem extracts the product identifier, quantity and unit value from
// a response that may be a single object or an array of objects
func parseOrderItem(body []byte) (*profit.OrderItem, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	var item map[string]any
	switch v := doc.(type) {
	case []any:
		if len(v) > 0 {
			item, _ = v[0].(map[string]any)
		}
		if item == nil {
			return nil, notResolved(doc)
		}
		sku := firstText(item, productIDFields)
		if sku == "" {
			return nil, notResolved(doc)
		}
		return buildOrderItem(sku, item), nil
	case map[string]any:
		item = v
		sku := firstText(item, productIDFields)
		if sku == "" {
			sku = nestedSKU(item)
		}
		if sku == "" {
			return nil, notResolved(doc)
		}
		return buildOrderItem(sku, item), nil
	default:
		return nil, notResolved(doc)
	}
}

func buildOrderItem(sku string, item map[string]any) *profit.OrderItem {
	out := &profit.OrderItem{ProductID: sku}
	if qty, ok := positiveInt(item["OrderQty"]); ok {
		out.Quantity = &qty
	}
	if unit := profit.ParseAmount(scalarText(item["UnitValue"])); unit.Valid && !unit.Decimal.IsZero() {
		out.UnitValue = unit
	}
	return out
}

func nestedSKU(item map[string]any) string {
	for _, field := range nestedItemFields {
		list, ok := item[field].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		first, ok := list[0].(map[string]any)
		if !ok {
			continue
		}
		if sku := scalarText(first["SKU"]); sku != "" {
			return sku
		}
	}
	return ""
}

func firstText(item map[string]any, fields []string) string {
	for _, f := range fields {
		if s := scalarText(item[f]); s != "" {
			return s
		}
	}
	return ""
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func positiveInt(v any) (int, bool) {
	var n int64
	var err error
	switch t := v.(type) {
	case json.Number:
		n, err = t.Int64()
		if err != nil {
			f, ferr := decimal.NewFromString(t.String())
			if ferr != nil {
				return 0, false
			}
			n = f.IntPart()
		}
	case string:
		n, err = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if n <= 0 {
		return 0, false
	}
	return int(n), true
}

// notResolved describes what came back so an operator can see why no SKU was found
func notResolved(doc any) error {
	kind := "object"
	keys := "N/A"
	switch v := doc.(type) {
	case map[string]any:
		names := make([]string, 0, len(v))
		for k := range v {
			names = append(names, k)
		}
		sort.Strings(names)
		keys = strings.Join(names, ", ")
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				names := make([]string, 0, len(first))
				for k := range first {
					names = append(names, k)
				}
				sort.Strings(names)
				keys = strings.Join(names, ", ")
			}
		}
	case nil:
		kind = "null"
	case string:
		kind = "string"
	case json.Number:
		kind = "number"
	case bool:
		kind = "boolean"
	}
	return fmt.Errorf("%w - received %s with keys: %s", integration.ErrProductNotResolved, kind, keys)
}

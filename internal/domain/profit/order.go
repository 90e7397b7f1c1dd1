package profit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderIdentifier is an order id as sent by callers. JSON input may be a
// string or a number; both decode to the same textual id.
type OrderIdentifier string

// UnmarshalJSON accepts "1001" and 1001 alike
func (id *OrderIdentifier) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return errors.New("order identifier must be a string or number, got null")
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = OrderIdentifier(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil || n == "" {
		return fmt.Errorf("order identifier must be a string or number, got %s", data)
	}
	*id = OrderIdentifier(n.String())
	return nil
}

// OrderIdentifierStrings converts ids to plain strings, keeping a nil list nil
func OrderIdentifierStrings(ids []OrderIdentifier) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// Order is a processed order as reported by the order management system.
// It is supplied by the caller and never mutated by the pipeline.
type Order struct {
	OrderID           string          `json:"order_id"`
	NumOrderID        int64           `json:"num_order_id,omitempty"`
	ReceivedDate      time.Time       `json:"received_date"`
	ProcessedOn       time.Time       `json:"processed_on"`
	TotalChargeIncVat decimal.Decimal `json:"total_charge"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Tax               decimal.Decimal `json:"tax"`
	Source            string          `json:"source"`
	SubSource         string          `json:"sub_source,omitempty"`
}

// SourceOrUnknown returns the order source, or "Unknown" when it is blank
func (o Order) SourceOrUnknown() string {
	if o.Source == "" {
		return "Unknown"
	}
	return o.Source
}

// ProfitedOrder is an order joined with its enrichment and computed profit.
// Enrichment and Profit are nil when the order has not been enriched.
type ProfitedOrder struct {
	Order
	Enrichment *EnrichmentResult `json:"enrichment,omitempty"`
	Profit     *ProfitResult     `json:"profit,omitempty"`
}

// ProfitOrZero returns the computed profit, or zero when none was computed
func (p ProfitedOrder) ProfitOrZero() decimal.Decimal {
	if p.Profit == nil {
		return decimal.Zero
	}
	return p.Profit.Profit
}

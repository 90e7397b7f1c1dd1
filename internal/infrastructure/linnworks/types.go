package linnworks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// searchProcessedOrdersRequest is the body of ProcessedOrders/SearchProcessedOrders
type searchProcessedOrdersRequest struct {
	Request searchRequest `json:"request"`
}

type searchRequest struct {
	SearchFilters  []searchFilter `json:"SearchFilters"`
	PageNumber     int            `json:"PageNumber"`
	ResultsPerPage int            `json:"ResultsPerPage"`
	FromDate       string         `json:"FromDate"`
	DateField      string         `json:"DateField"`
	ToDate         string         `json:"ToDate"`
}

type searchFilter struct {
	SearchField string `json:"SearchField"`
	SearchTerm  string `json:"SearchTerm"`
}

type searchProcessedOrdersResponse struct {
	ProcessedOrders processedOrdersPage `json:"ProcessedOrders"`
}

type processedOrdersPage struct {
	PageNumber     int              `json:"PageNumber"`
	EntriesPerPage int              `json:"EntriesPerPage"`
	TotalEntries   int              `json:"TotalEntries"`
	TotalPages     int              `json:"TotalPages"`
	Data           []processedOrder `json:"Data"`
}

// processedOrder is one row of the processed-order search
type processedOrder struct {
	OrderID      string              `json:"pkOrderID"`
	NumOrderID   int64               `json:"nOrderId"`
	ReceivedDate upstreamTime        `json:"dReceivedDate"`
	ProcessedOn  upstreamTime        `json:"dProcessedOn"`
	TotalCharge  decimal.NullDecimal `json:"fTotalCharge"`
	Subtotal     decimal.NullDecimal `json:"Subtotal"`
	Tax          decimal.NullDecimal `json:"fTax"`
	Source       string              `json:"Source"`
	SubSource    string              `json:"SubSource"`
}

// extendedProperty is one inventory extended property. The upstream field
// is spelled "ProperyName"; the corrected spelling is accepted as well.
type extendedProperty struct {
	ProperyName   string          `json:"ProperyName"`
	PropertyName  string          `json:"PropertyName"`
	PropertyValue json.RawMessage `json:"PropertyValue"`
}

func (p extendedProperty) name() string {
	if p.ProperyName != "" {
		return p.ProperyName
	}
	return p.PropertyName
}

// value renders the property value as text whether it arrived as a JSON
// string or a JSON number
func (p extendedProperty) value() string {
	return rawText(p.PropertyValue)
}

type getExtendedPropertiesRequest struct {
	ItemNumber string `json:"itemNumber"`
}

type authorizeRequest struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationSecret string `json:"applicationSecret"`
	Token             string `json:"token"`
}

type authorizeResponse struct {
	Token  string `json:"Token"`
	Server string `json:"Server"`
}

// upstreamTime parses the date formats the API emits, which may or may not
// carry a zone designator. Zoneless values are read as UTC.
type upstreamTime struct {
	time.Time
}

var upstreamTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler
func (t *upstreamTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("linnworks: date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range upstreamTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("linnworks: unrecognised date %q", s)
}

// formatUpstreamTime renders a search boundary the way the API expects
func formatUpstreamTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}

// rawText returns a JSON scalar as text: strings unquoted, numbers verbatim,
// null and composites as empty
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[':
		return ""
	default:
		return string(raw)
	}
}

package linnworks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/shopspring/decimal"
)

const (
	searchProcessedOrdersPath = "ProcessedOrders/SearchProcessedOrders"
	searchDateField           = "processed"
	directSource              = "DIRECT"
)

// SearchProcessedOrders returns one page of processed orders. Source filters
// naming a consolidator sub-channel are rewritten to SubSource, because the
// upstream indexes those orders under the platform's own source name.
func (c *Client) SearchProcessedOrders(ctx context.Context, token string, req *integration.OrderSearchRequest) (*integration.OrderPage, error) {
	if req.To.IsZero() {
		req.To = c.now()
	}
	if req.From.IsZero() {
		req.From = req.To.AddDate(0, 0, -c.config.DefaultLookbackDays)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := searchProcessedOrdersRequest{Request: searchRequest{
		SearchFilters:  c.mapFilters(req.Filters),
		PageNumber:     req.PageNumber,
		ResultsPerPage: req.PageSize,
		FromDate:       formatUpstreamTime(req.From),
		DateField:      searchDateField,
		ToDate:         formatUpstreamTime(req.To),
	}}

	body, err := c.doRequest(ctx, http.MethodPost, searchProcessedOrdersPath, token, payload)
	if err != nil {
		return nil, fmt.Errorf("processed orders: %w", err)
	}

	var resp searchProcessedOrdersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	page := &integration.OrderPage{
		Orders:       make([]profit.Order, 0, len(resp.ProcessedOrders.Data)),
		PageNumber:   resp.ProcessedOrders.PageNumber,
		TotalEntries: resp.ProcessedOrders.TotalEntries,
		TotalPages:   resp.ProcessedOrders.TotalPages,
	}
	if page.PageNumber == 0 {
		page.PageNumber = req.PageNumber
	}
	for _, row := range resp.ProcessedOrders.Data {
		page.Orders = append(page.Orders, toOrder(row))
	}
	return page, nil
}

// FetchAll walks every page of a search. maxPages <= 0 means no limit.
func (c *Client) FetchAll(ctx context.Context, token string, req *integration.OrderSearchRequest, maxPages int) ([]profit.Order, error) {
	return integration.FetchAll(ctx, c, token, req, maxPages)
}

func (c *Client) mapFilters(filters []integration.SearchFilter) []searchFilter {
	if len(filters) == 0 {
		return []searchFilter{{SearchField: string(integration.SearchFieldSource), SearchTerm: directSource}}
	}
	out := make([]searchFilter, 0, len(filters))
	for _, f := range filters {
		field := f.Field
		if field == "" {
			field = integration.SearchFieldSource
		}
		if field == integration.SearchFieldSource && c.catalog.IsSubSourceTerm(f.Term) {
			field = integration.SearchFieldSubSource
		}
		out = append(out, searchFilter{SearchField: string(field), SearchTerm: f.Term})
	}
	return out
}

func toOrder(row processedOrder) profit.Order {
	return profit.Order{
		OrderID:           row.OrderID,
		NumOrderID:        row.NumOrderID,
		ReceivedDate:      row.ReceivedDate.Time,
		ProcessedOn:       row.ProcessedOn.Time,
		TotalChargeIncVat: orZero(row.TotalCharge),
		Subtotal:          orZero(row.Subtotal),
		Tax:               orZero(row.Tax),
		Source:            row.Source,
		SubSource:         row.SubSource,
	}
}

func orZero(n decimal.NullDecimal) decimal.Decimal {
	return profit.OrZero(n)
}

package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orderprofit/backend/internal/domain/profit"
)

// ---------------------------------------------------------------------------
// Upstream Errors
// ---------------------------------------------------------------------------

var (
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")

	// ErrProductNotResolved means the order-item response carried no product identifier
	ErrProductNotResolved = errors.New("integration: no product identifier found for order")

	// ErrInvalidSearchRequest wraps every OrderSearchRequest validation failure
	ErrInvalidSearchRequest = errors.New("integration: invalid search request")
)

// ---------------------------------------------------------------------------
// Request/Response DTOs
// ---------------------------------------------------------------------------

// SearchField names an order field that can be filtered on
type SearchField string

const (
	SearchFieldSource    SearchField = "Source"
	SearchFieldSubSource SearchField = "SubSource"
)

// SearchFilter is a single field filter on the processed-order search
type SearchFilter struct {
	Field SearchField `json:"field"`
	Term  string      `json:"term"`
}

// OrderSearchRequest selects processed orders by processed date and filters
type OrderSearchRequest struct {
	// From is the start of the processed-date range
	From time.Time
	// To is the end of the processed-date range
	To time.Time
	// Filters narrows the search; an empty list means direct orders only
	Filters []SearchFilter
	// PageNumber is 1-indexed
	PageNumber int
	// PageSize is the number of orders per page
	PageSize int
}

// Validate validates the search request and fills paging defaults
func (r *OrderSearchRequest) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("%w: from and to dates are required", ErrInvalidSearchRequest)
	}
	if r.From.After(r.To) {
		return fmt.Errorf("%w: from date must be before to date", ErrInvalidSearchRequest)
	}
	if r.PageNumber < 1 {
		r.PageNumber = 1
	}
	if r.PageSize < 1 || r.PageSize > 200 {
		r.PageSize = 200
	}
	return nil
}

// OrderPage is one page of processed orders
type OrderPage struct {
	Orders       []profit.Order
	PageNumber   int
	TotalEntries int
	TotalPages   int
}

// HasMore reports whether a later page exists
func (p *OrderPage) HasMore() bool {
	return p.PageNumber < p.TotalPages
}

// Session is an authorized upstream session
type Session struct {
	Token     string
	ServerURL string
	IssuedAt  time.Time
}

// ---------------------------------------------------------------------------
// Port Interfaces
// ---------------------------------------------------------------------------

// OrderItemResolver resolves an order identifier to its product line
type OrderItemResolver interface {
	ResolveOrderItem(ctx context.Context, token, orderID string) (*profit.OrderItem, error)
}

// FeeLookupClient returns cost, freight, courier and marketplace fee data for a product
type FeeLookupClient interface {
	LookupProductCosts(ctx context.Context, token, productID string) (*profit.ProductCosts, error)
}

// OrderSource lists processed orders
type OrderSource interface {
	SearchProcessedOrders(ctx context.Context, token string, req *OrderSearchRequest) (*OrderPage, error)
}

// Authorizer exchanges configured application credentials for a session
type Authorizer interface {
	Authorize(ctx context.Context) (*Session, error)
}

// FetchAll walks every page of an order search. maxPages <= 0 means no limit.
// Orders fetched before an error are returned with it.
func FetchAll(ctx context.Context, source OrderSource, token string, req *OrderSearchRequest, maxPages int) ([]profit.Order, error) {
	pageReq := *req
	if pageReq.PageNumber < 1 {
		pageReq.PageNumber = 1
	}

	var orders []profit.Order
	for pages := 0; maxPages <= 0 || pages < maxPages; pages++ {
		if err := ctx.Err(); err != nil {
			return orders, err
		}
		page, err := source.SearchProcessedOrders(ctx, token, &pageReq)
		if err != nil {
			return orders, err
		}
		orders = append(orders, page.Orders...)
		if !page.HasMore() || len(page.Orders) == 0 {
			break
		}
		pageReq.PageNumber = page.PageNumber + 1
	}
	return orders, nil
}

package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/report"
)

// EnrichmentRequest asks for product and cost data for a list of orders.
// AuthToken may be omitted when an Authorization header is sent.
// Order ids may be strings or numbers.
type EnrichmentRequest struct {
	AuthToken string                   `json:"auth_token"`
	OrderIDs  []profit.OrderIdentifier `json:"order_ids"`
}

// CalculateRequest pairs caller-supplied orders with enrichment results
type CalculateRequest struct {
	Orders      []profit.Order            `json:"orders" binding:"required"`
	Enrichments []profit.EnrichmentResult `json:"enrichments"`
}

// RowsRequest carries previously computed profit rows
type RowsRequest struct {
	Rows []profit.ProfitedOrder `json:"rows" binding:"required"`
}

// RunRequest starts a search, enrich and calculate pipeline run.
// Dates accept YYYY-MM-DD or RFC 3339; a date-only to_date covers the whole day.
type RunRequest struct {
	AuthToken string `json:"auth_token"`
	FromDate  string `json:"from_date" binding:"required"`
	ToDate    string `json:"to_date" binding:"required"`
	Source    string `json:"source" binding:"omitempty,notblank"`
	SubSource string `json:"sub_source" binding:"omitempty,notblank"`
	MaxPages  int    `json:"max_pages" binding:"gte=0"`
}

// FeeOverrideRequest sets the fee percentage for one source
type FeeOverrideRequest struct {
	Percent *decimal.Decimal `json:"percent" binding:"required"`
}

// ReportSummaryResponse is the monthly and per-source rollup of profit rows
type ReportSummaryResponse struct {
	Monthly []report.MonthlySummary `json:"monthly"`
	Sources []report.SourceSummary  `json:"sources"`
}

// MarketplacesResponse lists the marketplace catalog
type MarketplacesResponse struct {
	Properties   profit.PropertyNames `json:"properties"`
	Marketplaces []profit.Marketplace `json:"marketplaces"`
}

// TokenResponse is an upstream session
type TokenResponse struct {
	Token     string    `json:"token"`
	ServerURL string    `json:"server_url"`
	IssuedAt  time.Time `json:"issued_at"`
}

const dateLayout = "2006-01-02"

// parseRange parses the run date range, extending a date-only upper bound to the end of that day
func parseRange(from, to string) (time.Time, time.Time, error) {
	start, _, err := parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, dateOnly, err := parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}

package profit

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeeOverride is a user-adjusted fee percentage for one order source.
// Overrides replace the rate the formula would otherwise read from the
// enrichment data.
type FeeOverride struct {
	// Source is the normalized source name (see NormalizeName)
	Source    string          `json:"source"`
	Percent   decimal.Decimal `json:"percent"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewFeeOverride validates and normalizes an override.
func NewFeeOverride(source string, percent decimal.Decimal) (*FeeOverride, error) {
	key := NormalizeName(strings.TrimSpace(source))
	if key == "" {
		return nil, ErrInvalidMarketplace
	}
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return nil, ErrInvalidFeeOverride
	}
	return &FeeOverride{Source: key, Percent: percent, UpdatedAt: time.Now().UTC()}, nil
}

// Rate returns the override as a fraction
func (o FeeOverride) Rate() decimal.Decimal {
	return PercentToRate(o.Percent)
}

// FeeOverrides maps normalized source names to override rates.
type FeeOverrides map[string]decimal.Decimal

// NewFeeOverrides indexes a list of overrides by source
func NewFeeOverrides(list []FeeOverride) FeeOverrides {
	out := make(FeeOverrides, len(list))
	for _, o := range list {
		out[o.Source] = o.Rate()
	}
	return out
}

// RateFor returns the override rate for a raw source name.
func (f FeeOverrides) RateFor(source string) (decimal.Decimal, bool) {
	if len(f) == 0 {
		return decimal.Zero, false
	}
	rate, ok := f[NormalizeName(source)]
	return rate, ok
}

// FeeOverrideRepository persists fee overrides across restarts.
type FeeOverrideRepository interface {
	List(ctx context.Context) ([]FeeOverride, error)
	// Get returns ErrFeeOverrideNotFound when no override exists
	Get(ctx context.Context, source string) (*FeeOverride, error)
	// Upsert inserts or replaces the override for its source
	Upsert(ctx context.Context, override *FeeOverride) error
	// Delete returns ErrFeeOverrideNotFound when no override exists
	Delete(ctx context.Context, source string) error
}

package profit

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of fractional digits for every monetary output
const CurrencyPlaces = 2

var (
	// StandardVATRate is the UK standard VAT rate applied by every formula
	StandardVATRate = decimal.RequireFromString("0.2")

	vatMultiplier = decimal.NewFromInt(1).Add(StandardVATRate)
	hundred       = decimal.NewFromInt(100)
	halfUnit      = decimal.New(5, -(CurrencyPlaces + 1))
)

// NetOfVAT strips standard-rate VAT from a VAT-inclusive amount (amount / 1.2)
func NetOfVAT(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(vatMultiplier)
}

// VATPortion returns the VAT contained in a VAT-inclusive amount
func VATPortion(amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(NetOfVAT(amount))
}

// RoundCurrency rounds half up (towards positive infinity) to CurrencyPlaces
// digits, so a loss of -0.125 becomes -0.12.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Add(halfUnit).RoundFloor(CurrencyPlaces)
}

// FormatCurrency renders an amount with exactly CurrencyPlaces digits
func FormatCurrency(d decimal.Decimal) string {
	return d.StringFixed(CurrencyPlaces)
}

// OrZero returns the value of a nullable decimal, or zero when it is unset
func OrZero(n decimal.NullDecimal) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}

// PercentToRate converts a percentage (15 meaning 15%) into a fraction
func PercentToRate(pct decimal.Decimal) decimal.Decimal {
	return pct.Div(hundred)
}

// RateToPercent converts a fraction into a percentage
func RateToPercent(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(hundred)
}

// ParseAmount parses a loosely formatted upstream amount such as "£12.50",
// " 3 " or "15%". Unparseable or empty input yields an invalid NullDecimal.
func ParseAmount(s string) decimal.NullDecimal {
	s, _ = trimPercent(s)
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ParseRate parses a fee rate. A value with a % sign is always a percentage.
// A bare value above 1 is read as a percentage too, so "0.15", "15" and "15%"
// all yield 0.15 while a bare "1" stays a rate of 1.
func ParseRate(s string) decimal.NullDecimal {
	trimmed, percent := trimPercent(s)
	n := ParseAmount(trimmed)
	if !n.Valid {
		return n
	}
	if percent || n.Decimal.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewNullDecimal(PercentToRate(n.Decimal))
	}
	return n
}

func trimPercent(s string) (string, bool) {
	s = strings.TrimSpace(s)
	trimmed := strings.TrimSuffix(s, "%")
	return strings.TrimSpace(trimmed), trimmed != s
}

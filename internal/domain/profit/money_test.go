package profit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetOfVAT(t *testing.T) {
	assert.True(t, NetOfVAT(decimal.NewFromInt(120)).Equal(decimal.NewFromInt(100)))
	assert.True(t, VATPortion(decimal.NewFromInt(120)).Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "16.67", FormatCurrency(RoundCurrency(VATPortion(decimal.NewFromInt(100)))))
}

func TestRoundCurrency_HalfUp(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"2.675", "2.68"},
		{"10", "10.00"},
		{"0", "0.00"},
		{"-0.125", "-0.12"},
		{"-0.126", "-0.13"},
		{"-1.004", "-1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCurrency(RoundCurrency(decimal.RequireFromString(tt.in))))
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
		want  string
	}{
		{"plain", "12.5", true, "12.5"},
		{"pound sign", "£12.50", true, "12.5"},
		{"thousands", "1,250.00", true, "1250"},
		{"padded", "  3 ", true, "3"},
		{"percent", "15%", true, "15"},
		{"empty", "", false, ""},
		{"garbage", "n/a", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.in)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.True(t, got.Decimal.Equal(decimal.RequireFromString(tt.want)), got.Decimal.String())
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.15", "0.15"},
		{"15", "0.15"},
		{"15%", "0.15"},
		{" 15 % ", "0.15"},
		{"1%", "0.01"},
		{"0.5%", "0.005"},
		{"100%", "1"},
		{"1", "1"},
		{"0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseRate(tt.in)
			require.True(t, got.Valid)
			assert.True(t, got.Decimal.Equal(decimal.RequireFromString(tt.want)), got.Decimal.String())
		})
	}

	assert.False(t, ParseRate("").Valid)
	assert.False(t, ParseRate("%").Valid)
	assert.False(t, ParseRate("n/a").Valid)
}

func TestOrZero(t *testing.T) {
	assert.True(t, OrZero(decimal.NullDecimal{}).IsZero())
	assert.True(t, OrZero(decimal.NewNullDecimal(decimal.NewFromInt(4))).Equal(decimal.NewFromInt(4)))
}

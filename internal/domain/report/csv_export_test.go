package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderprofit/backend/internal/domain/profit"
)

func TestWriteCSV_FixedColumnCount(t *testing.T) {
	qty := 2
	pid := "SKU-1"
	processed := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	rows := []profit.ProfitedOrder{
		{
			Order: profit.Order{OrderID: "o-1", NumOrderID: 1001, ProcessedOn: processed, Source: "AMAZON", TotalChargeIncVat: decimal.NewFromInt(120)},
			Enrichment: &profit.EnrichmentResult{
				OrderID: "o-1", ProductID: &pid, Quantity: &qty,
				CostAmount: decimal.NewNullDecimal(decimal.NewFromInt(10)),
				Succeeded:  true,
			},
			Profit: &profit.ProfitResult{
				FeeRate:        decimal.RequireFromString("0.15"),
				MarketplaceFee: decimal.NewFromInt(18),
				VAT:            decimal.NewFromInt(20),
				TotalCost:      decimal.NewFromInt(51),
				Profit:         decimal.NewFromInt(69),
			},
		},
		{
			Order:      profit.Order{OrderID: "o-2", Source: "EBAY", TotalChargeIncVat: decimal.RequireFromString("9.5")},
			Enrichment: &profit.EnrichmentResult{OrderID: "o-2", Error: "upstream: HTTP 500"},
		},
		{Order: profit.Order{OrderID: "o-3", Source: "DIRECT"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, rec := range records {
		assert.Len(t, rec, len(CSVColumns))
	}

	first := records[1]
	assert.Equal(t, "1001", first[1])
	assert.Equal(t, "2025-03-14 09:30:00", first[3])
	assert.Equal(t, "SKU-1", first[6])
	assert.Equal(t, "2", first[7])
	assert.Equal(t, "120.00", first[8])
	assert.Equal(t, "10.00", first[9])
	assert.Equal(t, "", first[10])
	assert.Equal(t, "15.00", first[12])
	assert.Equal(t, "69.00", first[19])
	assert.Equal(t, "57.50", first[20])
	assert.Equal(t, "", first[15])

	second := records[2]
	assert.Equal(t, "9.50", second[8])
	assert.Equal(t, "", second[6])
	assert.Equal(t, "", second[19])
	assert.Equal(t, "upstream: HTTP 500", second[21])

	for _, field := range records[3] {
		assert.NotEqual(t, "null", field)
		assert.NotEqual(t, "undefined", field)
	}
}

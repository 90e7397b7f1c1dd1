package report

import (
	"testing"
	"time"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(source, subSource string, processed time.Time, value, profitAmount string) profit.ProfitedOrder {
	o := profit.ProfitedOrder{
		Order: profit.Order{
			Source:            source,
			SubSource:         subSource,
			ProcessedOn:       processed,
			TotalChargeIncVat: decimal.RequireFromString(value),
		},
	}
	if profitAmount != "" {
		o.Profit = &profit.ProfitResult{Profit: decimal.RequireFromString(profitAmount)}
	}
	return o
}

func TestSummarize_SameSourceAndMonth(t *testing.T) {
	march := time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)
	rows := []profit.ProfitedOrder{
		row("Amazon", "", march, "100", "20"),
		row("Amazon", "", march.AddDate(0, 0, 10), "50", "10"),
	}

	got := Summarize(rows)

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, "Amazon", s.Source)
	assert.Equal(t, 2024, s.Year)
	assert.Equal(t, time.March, s.Month)
	assert.Equal(t, "March", s.MonthName)
	assert.Equal(t, 2, s.OrdersNumber)
	assert.True(t, s.OrdersValue.Equal(decimal.NewFromInt(150)))
	assert.True(t, s.Profit.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "20.00", s.ProfitPercent.StringFixed(2))
}

func TestSummarize_SplitsBySubSourceAndMonth(t *testing.T) {
	jan := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC)
	rows := []profit.ProfitedOrder{
		row("Virtualstock", "Wilko", feb, "10", "1"),
		row("Virtualstock", "Robert Dyas", jan, "10", "1"),
		row("Virtualstock", "Wilko", jan, "10", "1"),
		row("", "", jan, "0", ""),
	}

	got := Summarize(rows)

	require.Len(t, got, 4)
	assert.Equal(t, "Unknown", got[0].Source)
	assert.True(t, got[0].ProfitPercent.IsZero(), "zero value yields zero percent")
	assert.Equal(t, "Robert Dyas", got[1].SubSource)
	assert.Equal(t, "Wilko", got[2].SubSource)
	assert.Equal(t, time.January, got[2].Month)
	assert.Equal(t, time.February, got[3].Month)
}

func TestSummarize_MissingProfitCountsAsZero(t *testing.T) {
	jan := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	got := Summarize([]profit.ProfitedOrder{row("eBay", "", jan, "40", "")})

	require.Len(t, got, 1)
	assert.True(t, got[0].Profit.IsZero())
	assert.Equal(t, 1, got[0].OrdersNumber)
}

func TestSummarizeBySource(t *testing.T) {
	jan := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2023, time.December, 5, 0, 0, 0, 0, time.UTC)
	rows := []profit.ProfitedOrder{
		row("eBay", "", jan, "10", "1"),
		row("Amazon", "", jan, "100", "10"),
		row("Amazon", "", dec, "100", "30"),
		row("Virtualstock", "Wilko", jan, "30", "3"),
		row("Virtualstock", "Robert Dyas", jan, "30", "3"),
	}

	got := SummarizeBySource(rows)

	require.Len(t, got, 3)
	assert.Equal(t, "Amazon", got[0].Source)
	assert.Equal(t, "Virtualstock", got[1].Source)
	assert.Equal(t, "eBay", got[2].Source)

	amazon := got[0]
	assert.Equal(t, 2, amazon.TotalOrders)
	assert.True(t, amazon.TotalValue.Equal(decimal.NewFromInt(200)))
	assert.True(t, amazon.TotalProfit.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "20.00", amazon.AverageProfitPercent.StringFixed(2))
	require.Len(t, amazon.MonthlyData, 2)
	assert.Equal(t, 2023, amazon.MonthlyData[0].Year)
	assert.Equal(t, 2024, amazon.MonthlyData[1].Year)

	// sub-sources are folded into their source
	require.Len(t, got[1].MonthlyData, 1)
	assert.Equal(t, 2, got[1].MonthlyData[0].OrdersNumber)
}

package report

import (
	"sort"
	"time"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MonthlySummary is a read model of profit per source, sub-source and processed month
type MonthlySummary struct {
	Source        string          `json:"source"`
	SubSource     string          `json:"sub_source,omitempty"`
	Year          int             `json:"year"`
	Month         time.Month      `json:"month"`
	MonthName     string          `json:"month_name"`
	OrdersNumber  int             `json:"orders_number"`
	OrdersValue   decimal.Decimal `json:"orders_value"`
	Profit        decimal.Decimal `json:"profit"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
}

// SourceSummary rolls the monthly figures of one source up into totals
type SourceSummary struct {
	Source               string           `json:"source"`
	MonthlyData          []MonthlySummary `json:"monthly_data"`
	TotalOrders          int              `json:"total_orders"`
	TotalValue           decimal.Decimal  `json:"total_value"`
	TotalProfit          decimal.Decimal  `json:"total_profit"`
	AverageProfitPercent decimal.Decimal  `json:"average_profit_percent"`
}

type monthKey struct {
	source    string
	subSource string
	year      int
	month     time.Month
}

// ProfitPercent returns profit / value × 100 rounded to currency precision,
// or zero when value is zero
func ProfitPercent(profitAmount, value decimal.Decimal) decimal.Decimal {
	if value.IsZero() {
		return decimal.Zero
	}
	return profit.RoundCurrency(profitAmount.Div(value).Mul(hundred))
}

// orderMonth returns the processed date, falling back to the received date
func orderMonth(o profit.Order) (int, time.Month) {
	t := o.ProcessedOn
	if t.IsZero() {
		t = o.ReceivedDate
	}
	return t.Year(), t.Month()
}

// Summarize groups orders by source, sub-source and processed month.
// Percentages are derived once per group after every order is folded in.
func Summarize(rows []profit.ProfitedOrder) []MonthlySummary {
	return summarize(rows, true)
}

func summarize(rows []profit.ProfitedOrder, bySubSource bool) []MonthlySummary {
	groups := make(map[monthKey]*MonthlySummary)
	for _, row := range rows {
		year, month := orderMonth(row.Order)
		key := monthKey{source: row.SourceOrUnknown(), year: year, month: month}
		if bySubSource {
			key.subSource = row.SubSource
		}

		s, ok := groups[key]
		if !ok {
			s = &MonthlySummary{
				Source:      key.source,
				SubSource:   key.subSource,
				Year:        year,
				Month:       month,
				MonthName:   month.String(),
				OrdersValue: decimal.Zero,
				Profit:      decimal.Zero,
			}
			groups[key] = s
		}
		s.OrdersNumber++
		s.OrdersValue = s.OrdersValue.Add(row.TotalChargeIncVat)
		s.Profit = s.Profit.Add(row.ProfitOrZero())
	}

	out := make([]MonthlySummary, 0, len(groups))
	for _, s := range groups {
		s.ProfitPercent = ProfitPercent(s.Profit, s.OrdersValue)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.SubSource != b.SubSource {
			return a.SubSource < b.SubSource
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return out
}

// SummarizeBySource groups orders per source with monthly data ordered by
// year and month. Sources are ordered by total value, highest first.
func SummarizeBySource(rows []profit.ProfitedOrder) []SourceSummary {
	monthly := summarize(rows, false)

	bySource := make(map[string]*SourceSummary)
	order := make([]string, 0)
	for _, m := range monthly {
		s, ok := bySource[m.Source]
		if !ok {
			s = &SourceSummary{
				Source:      m.Source,
				TotalValue:  decimal.Zero,
				TotalProfit: decimal.Zero,
			}
			bySource[m.Source] = s
			order = append(order, m.Source)
		}
		s.MonthlyData = append(s.MonthlyData, m)
		s.TotalOrders += m.OrdersNumber
		s.TotalValue = s.TotalValue.Add(m.OrdersValue)
		s.TotalProfit = s.TotalProfit.Add(m.Profit)
	}

	out := make([]SourceSummary, 0, len(order))
	for _, source := range order {
		s := bySource[source]
		s.AverageProfitPercent = ProfitPercent(s.TotalProfit, s.TotalValue)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue.GreaterThan(out[j].TotalValue)
	})
	return out
}

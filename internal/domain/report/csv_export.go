package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/shopspring/decimal"
)

const csvDateLayout = "2006-01-02 15:04:05"

// CSVColumns is the fixed header of the order export.
var CSVColumns = []string{
	"Order ID",
	"Order Number",
	"Received Date",
	"Processed Date",
	"Source",
	"Sub Source",
	"Product ID",
	"Quantity",
	"Total Charge",
	"Cost",
	"Freight",
	"Courier",
	"Fee Rate %",
	"Marketplace Fee",
	"VAT",
	"VAT Primary",
	"VAT Secondary",
	"Selling Price Ex VAT",
	"Total Cost",
	"Profit",
	"Profit %",
	"Error",
}

// WriteCSV writes the header and one row per order. Every row has
// len(CSVColumns) fields; missing values render as empty strings and
// amounts always carry two decimals.
func WriteCSV(w io.Writer, rows []profit.ProfitedOrder) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(CSVRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVRecord renders one order in CSVColumns order.
func CSVRecord(row profit.ProfitedOrder) []string {
	rec := make([]string, len(CSVColumns))
	rec[0] = row.OrderID
	if row.NumOrderID != 0 {
		rec[1] = strconv.FormatInt(row.NumOrderID, 10)
	}
	if !row.ReceivedDate.IsZero() {
		rec[2] = row.ReceivedDate.Format(csvDateLayout)
	}
	if !row.ProcessedOn.IsZero() {
		rec[3] = row.ProcessedOn.Format(csvDateLayout)
	}
	rec[4] = row.Source
	rec[5] = row.SubSource
	rec[8] = profit.FormatCurrency(row.TotalChargeIncVat)

	if e := row.Enrichment; e != nil {
		rec[6] = e.ProductIDOrEmpty()
		if e.Quantity != nil {
			rec[7] = strconv.Itoa(*e.Quantity)
		}
		rec[9] = nullAmount(e.CostAmount)
		rec[10] = nullAmount(e.FreightAmount)
		rec[11] = nullAmount(e.CourierAmount)
		rec[21] = e.Error
	}

	if p := row.Profit; p != nil {
		rec[12] = profit.FormatCurrency(profit.RateToPercent(p.FeeRate))
		rec[13] = profit.FormatCurrency(p.MarketplaceFee)
		rec[14] = profit.FormatCurrency(p.VAT)
		rec[15] = nullAmount(p.VATPrimary)
		rec[16] = nullAmount(p.VATSecondary)
		rec[17] = profit.FormatCurrency(p.SellingPriceExVat)
		rec[18] = profit.FormatCurrency(p.TotalCost)
		rec[19] = profit.FormatCurrency(p.Profit)
		rec[20] = profit.FormatCurrency(ProfitPercent(p.Profit, row.TotalChargeIncVat))
	}
	return rec
}

func nullAmount(n decimal.NullDecimal) string {
	if !n.Valid {
		return ""
	}
	return profit.FormatCurrency(n.Decimal)
}

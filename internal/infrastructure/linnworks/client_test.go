package linnworks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
)

func testCatalog(t *testing.T) *profit.Catalog {
	t.Helper()
	c, err := profit.NewCatalog(profit.PropertyNames{
		Cost:         "Z-Cost-Pound",
		CostFallback: "Z-Cost £ / Account Only",
		Freight:      "Z-Shipping Freight / Account Only",
		Courier:      "Z-Courier Charge / Account Only",
		DealPrice:    "Z-Groupon Price",
	}, []profit.Marketplace{
		{Key: "amazon", FeeProperty: "Z-Amazon Fee"},
		{Key: "wilko", FeeProperty: "Z-Wilko Fee"},
		{Key: "groupon", Class: profit.ClassDealAggregator, FeeProperty: "Z-Groupon Fee"},
		{
			Key:               "virtualstock",
			Class:             profit.ClassConsolidator,
			SubSources:        []profit.SubSourceRule{{Match: "Wilko", FeeKey: "wilko"}, {Match: "RobertDayas", FeeKey: "robertdyas"}},
			FilterBySubSource: true,
		},
	})
	require.NoError(t, err)
	return c
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := NewConfig()
	cfg.APIBaseURL = server.URL + "/api/"
	client, err := NewClient(cfg, testCatalog(t))
	require.NoError(t, err)
	client.now = func() time.Time { return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) }
	return client
}

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrConfigMissingBaseURL)

	cfg = &Config{APIBaseURL: DefaultAPIBaseURL}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Equal(t, 120, cfg.DefaultLookbackDays)
}

func TestConfig_ValidateAuth_ListsEveryMissingKey(t *testing.T) {
	cfg := &Config{ApplicationSecret: "secret"}
	err := cfg.ValidateAuth()

	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
	assert.Contains(t, err.Error(), "PROFIT_LINNWORKS_APPLICATION_ID")
	assert.Contains(t, err.Error(), "PROFIT_LINNWORKS_TOKEN")
	assert.NotContains(t, err.Error(), "PROFIT_LINNWORKS_APPLICATION_SECRET")
}

func TestConfig_Endpoint(t *testing.T) {
	cfg := &Config{APIBaseURL: "https://example.test/api"}
	assert.Equal(t, "https://example.test/api/Inventory/X", cfg.endpoint("/Inventory/X"))
	cfg.APIBaseURL = "https://example.test/api/"
	assert.Equal(t, "https://example.test/api/Inventory/X", cfg.endpoint("Inventory/X"))
}

func TestNewClient_RequiresCatalog(t *testing.T) {
	_, err := NewClient(NewConfig(), nil)
	assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
}

// ---------------------------------------------------------------------------
// Order Item Tests
// ---------------------------------------------------------------------------

func TestClient_ResolveOrderItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/ProcessedOrders/GetReturnItemsInfo", r.URL.Path)
		assert.Equal(t, "order-1", r.URL.Query().Get("pkOrderId"))
		assert.Equal(t, "tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"SKU":"SKU-1","OrderQty":3,"UnitValue":"12.50"}]`))
	})

	item, err := client.ResolveOrderItem(context.Background(), "tok", "order-1")

	require.NoError(t, err)
	assert.Equal(t, "SKU-1", item.ProductID)
	require.NotNil(t, item.Quantity)
	assert.Equal(t, 3, *item.Quantity)
	assert.True(t, item.UnitValue.Decimal.Equal(decimal.RequireFromString("12.5")))
}

func TestClient_ResolveOrderItem_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.ResolveOrderItem(context.Background(), "tok", "order-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestParseOrderItem(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSKU string
		wantQty int
		wantErr error
	}{
		{name: "array SKU", body: `[{"SKU":"A","OrderQty":2}]`, wantSKU: "A", wantQty: 2},
		{name: "array ItemNumber", body: `[{"ItemNumber":"B"}]`, wantSKU: "B"},
		{name: "array lowercase sku", body: `[{"sku":"C"}]`, wantSKU: "C"},
		{name: "object SKU", body: `{"SKU":"D","OrderQty":"4"}`, wantSKU: "D", wantQty: 4},
		{name: "object nested Items", body: `{"Items":[{"SKU":"E"}]}`, wantSKU: "E"},
		{name: "object nested Data", body: `{"Data":[{"SKU":"F"}]}`, wantSKU: "F"},
		{name: "numeric sku", body: `{"SKU":12345}`, wantSKU: "12345"},
		{name: "blank SKU falls through", body: `{"SKU":"","ItemNumber":"G"}`, wantSKU: "G"},
		{name: "empty array", body: `[]`, wantErr: integration.ErrProductNotResolved},
		{name: "no known fields", body: `{"Foo":1,"Bar":2}`, wantErr: integration.ErrProductNotResolved},
		{name: "null", body: `null`, wantErr: integration.ErrProductNotResolved},
		{name: "not json", body: `<html>`, wantErr: integration.ErrPlatformInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := parseOrderItem([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSKU, item.ProductID)
			if tt.wantQty > 0 {
				require.NotNil(t, item.Quantity)
				assert.Equal(t, tt.wantQty, *item.Quantity)
			} else {
				assert.Nil(t, item.Quantity)
			}
		})
	}
}

func TestParseOrderItem_ErrorListsKeys(t *testing.T) {
	_, err := parseOrderItem([]byte(`{"Foo":1,"Bar":2}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "received object with keys: Bar, Foo")
}

// ---------------------------------------------------------------------------
// Inventory Tests
// ---------------------------------------------------------------------------

func TestClient_LookupProductCosts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/Inventory/GetInventoryItemExtendedProperties", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		var req map[string]string
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "SKU-1", req["itemNumber"])

		_, _ = w.Write([]byte(`[
			{"ProperyName":"Z-Cost-Pound","PropertyValue":"10.00"},
			{"ProperyName":"Z-Shipping Freight / Account Only","PropertyValue":"2"},
			{"ProperyName":"Z-Courier Charge / Account Only","PropertyValue":1},
			{"ProperyName":"Z-Amazon Fee","PropertyValue":"15"},
			{"ProperyName":"Z-Wilko Fee","PropertyValue":"0.12"},
			{"ProperyName":"Z-Groupon Price","PropertyValue":"£49.99"},
			{"ProperyName":"z-amazon fee","PropertyValue":"99"},
			{"ProperyName":"Colour","PropertyValue":"Red"}
		]`))
	})

	costs, err := client.LookupProductCosts(context.Background(), "tok", "SKU-1")

	require.NoError(t, err)
	assert.Equal(t, "10", costs.Cost.Decimal.String())
	assert.Equal(t, "2", costs.Freight.Decimal.String())
	assert.Equal(t, "1", costs.Courier.Decimal.String())
	assert.Equal(t, "49.99", costs.DealPrice.Decimal.String())
	assert.Len(t, costs.FeeRates, 2)
	assert.Equal(t, "0.15", costs.FeeRates["amazon"].String())
	assert.Equal(t, "0.12", costs.FeeRates["wilko"].String())
}

func TestParseProductCosts(t *testing.T) {
	catalog := testCatalog(t)

	t.Run("fallback cost property", func(t *testing.T) {
		costs, err := parseProductCosts([]byte(`[{"ProperyName":"Z-Cost £ / Account Only","PropertyValue":"7"}]`), catalog)
		require.NoError(t, err)
		assert.Equal(t, "7", costs.Cost.Decimal.String())
	})

	t.Run("primary cost wins over fallback", func(t *testing.T) {
		costs, err := parseProductCosts([]byte(`[
			{"ProperyName":"Z-Cost £ / Account Only","PropertyValue":"7"},
			{"ProperyName":"Z-Cost-Pound","PropertyValue":"8"}
		]`), catalog)
		require.NoError(t, err)
		assert.Equal(t, "8", costs.Cost.Decimal.String())
	})

	t.Run("corrected field spelling", func(t *testing.T) {
		costs, err := parseProductCosts([]byte(`[{"PropertyName":"Z-Cost-Pound","PropertyValue":"5"}]`), catalog)
		require.NoError(t, err)
		assert.Equal(t, "5", costs.Cost.Decimal.String())
	})

	t.Run("object response yields empty costs", func(t *testing.T) {
		costs, err := parseProductCosts([]byte(`{"Message":"none"}`), catalog)
		require.NoError(t, err)
		assert.False(t, costs.HasData())
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := parseProductCosts([]byte(`{oops`), catalog)
		assert.ErrorIs(t, err, integration.ErrPlatformInvalidResponse)
	})

	t.Run("percent sign always means a percentage", func(t *testing.T) {
		costs, err := parseProductCosts([]byte(`[
			{"ProperyName":"Z-Amazon Fee","PropertyValue":"1%"},
			{"ProperyName":"Z-Wilko Fee","PropertyValue":"0.5%"}
		]`), catalog)
		require.NoError(t, err)
		assert.Equal(t, "0.01", costs.FeeRates["amazon"].String())
		assert.Equal(t, "0.005", costs.FeeRates["wilko"].String())
	})

	t.Run("unparseable values stay unset", func(t *testing.T) {
		costs, err := parseProductCosts([]byte(`[
			{"ProperyName":"Z-Cost-Pound","PropertyValue":"n/a"},
			{"ProperyName":"Z-Amazon Fee","PropertyValue":""}
		]`), catalog)
		require.NoError(t, err)
		assert.False(t, costs.Cost.Valid)
		assert.Empty(t, costs.FeeRates)
	})
}

// ---------------------------------------------------------------------------
// Processed Order Tests
// ---------------------------------------------------------------------------

func TestClient_SearchProcessedOrders(t *testing.T) {
	var captured searchProcessedOrdersRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ProcessedOrders/SearchProcessedOrders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"ProcessedOrders":{"PageNumber":1,"TotalEntries":1,"TotalPages":1,"Data":[{
			"pkOrderID":"abc","nOrderId":1001,
			"dReceivedDate":"2025-05-02T09:00:00","dProcessedOn":"2025-05-03T10:15:22.123Z",
			"fTotalCharge":120.5,"Subtotal":100.42,"fTax":20.08,
			"Source":"VIRTUALSTOCK","SubSource":"Wilko"
		}]}}`))
	})

	req := &integration.OrderSearchRequest{
		From: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Filters: []integration.SearchFilter{
			{Field: integration.SearchFieldSource, Term: "Wilko"},
			{Field: integration.SearchFieldSource, Term: "Amazon"},
		},
	}
	page, err := client.SearchProcessedOrders(context.Background(), "tok", req)

	require.NoError(t, err)
	assert.Equal(t, "processed", captured.Request.DateField)
	assert.Equal(t, "2025-05-01T00:00:00", captured.Request.FromDate)
	assert.Equal(t, "2025-06-01T00:00:00", captured.Request.ToDate)
	assert.Equal(t, 200, captured.Request.ResultsPerPage)
	assert.Equal(t, 1, captured.Request.PageNumber)
	require.Len(t, captured.Request.SearchFilters, 2)
	assert.Equal(t, "SubSource", captured.Request.SearchFilters[0].SearchField)
	assert.Equal(t, "Source", captured.Request.SearchFilters[1].SearchField)

	require.Len(t, page.Orders, 1)
	o := page.Orders[0]
	assert.Equal(t, "abc", o.OrderID)
	assert.Equal(t, int64(1001), o.NumOrderID)
	assert.Equal(t, "120.5", o.TotalChargeIncVat.String())
	assert.Equal(t, "VIRTUALSTOCK", o.Source)
	assert.Equal(t, "Wilko", o.SubSource)
	assert.Equal(t, time.Date(2025, 5, 3, 10, 15, 22, 123000000, time.UTC), o.ProcessedOn)
	assert.Equal(t, time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC), o.ReceivedDate)
	assert.False(t, page.HasMore())
}

func TestClient_SearchProcessedOrders_Defaults(t *testing.T) {
	var captured searchProcessedOrdersRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"ProcessedOrders":{"Data":[]}}`))
	})

	_, err := client.SearchProcessedOrders(context.Background(), "tok", &integration.OrderSearchRequest{})

	require.NoError(t, err)
	require.Len(t, captured.Request.SearchFilters, 1)
	assert.Equal(t, "Source", captured.Request.SearchFilters[0].SearchField)
	assert.Equal(t, "DIRECT", captured.Request.SearchFilters[0].SearchTerm)
	assert.Equal(t, "2025-09-01T00:00:00", captured.Request.ToDate)
	assert.Equal(t, "2025-05-04T00:00:00", captured.Request.FromDate)
}

func TestClient_SearchProcessedOrders_RejectsInvertedRange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := client.SearchProcessedOrders(context.Background(), "tok", &integration.OrderSearchRequest{
		From: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}

func TestClient_FetchAll(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req searchProcessedOrdersRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := searchProcessedOrdersResponse{ProcessedOrders: processedOrdersPage{
			PageNumber: req.Request.PageNumber,
			TotalPages: 3,
			Data:       []processedOrder{{OrderID: "o", Source: "DIRECT"}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	})

	req := &integration.OrderSearchRequest{
		From: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	orders, err := client.FetchAll(context.Background(), "tok", req, 0)
	require.NoError(t, err)
	assert.Len(t, orders, 3)
	assert.Equal(t, 3, calls)

	calls = 0
	orders, err = client.FetchAll(context.Background(), "tok", req, 2)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, 2, calls)
}

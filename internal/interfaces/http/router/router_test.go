package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderprofit/backend/internal/application/enrichment"
	"github.com/orderprofit/backend/internal/application/pipeline"
	appreport "github.com/orderprofit/backend/internal/application/report"
	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/interfaces/http/handler"
	"github.com/orderprofit/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New(), "")
	assert.Equal(t, DefaultAPIVersion, r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), "v2")
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, "")

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("profit", "/profit")
		assert.Equal(t, "profit", g.Name())
		assert.Equal(t, "/profit", g.Prefix())
	})

	t.Run("methods and middleware", func(t *testing.T) {
		engine := gin.New()
		var seen []string
		g := NewDomainGroup("items", "/items").
			Use(nil, func(c *gin.Context) {
				seen = append(seen, c.Request.Method)
				c.Next()
			}).
			GET("", func(c *gin.Context) { c.Status(http.StatusOK) }).
			POST("", func(c *gin.Context) { c.Status(http.StatusCreated) }).
			PUT("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
			DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group("/api"))

		tests := []struct {
			method string
			path   string
			status int
		}{
			{http.MethodGet, "/api/items", http.StatusOK},
			{http.MethodPost, "/api/items", http.StatusCreated},
			{http.MethodPut, "/api/items/7", http.StatusOK},
			{http.MethodDelete, "/api/items/7", http.StatusNoContent},
		}
		for _, tt := range tests {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
		}
		assert.Equal(t, []string{"GET", "POST", "PUT", "DELETE"}, seen)
	})
}

type fakeEnricher struct{}

func (fakeEnricher) Enrich(_ context.Context, _ string, ids []string) (*enrichment.Run, error) {
	return &enrichment.Run{Processed: len(ids)}, nil
}

type fakeCalculator struct{}

func (fakeCalculator) Calculate(context.Context, []profit.Order, []profit.EnrichmentResult) ([]profit.ProfitedOrder, error) {
	return []profit.ProfitedOrder{}, nil
}

func (fakeCalculator) Recalculate(_ context.Context, rows []profit.ProfitedOrder) ([]profit.ProfitedOrder, error) {
	return rows, nil
}

type fakeRunner struct{}

func (fakeRunner) Run(context.Context, pipeline.Request) (*pipeline.Result, error) {
	return &pipeline.Result{}, nil
}

type fakeExporter struct{}

func (fakeExporter) Export(context.Context, []profit.ProfitedOrder, bool) (*appreport.ExportResult, error) {
	return &appreport.ExportResult{FileName: "profit.csv", ContentType: appreport.CSVContentType, Body: []byte("a\n")}, nil
}

type fakeOverrides struct{}

func (fakeOverrides) ListOverrides(context.Context) ([]profit.FeeOverride, error) { return nil, nil }

func (fakeOverrides) SetOverride(_ context.Context, source string, percent decimal.Decimal) (*profit.FeeOverride, error) {
	return profit.NewFeeOverride(source, percent)
}

func (fakeOverrides) DeleteOverride(context.Context, string) error { return nil }

type fakeSessions struct{}

func (fakeSessions) Session(context.Context) (*integration.Session, error) {
	return &integration.Session{Token: "t"}, nil
}

func newTestEngine(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	catalog, err := profit.NewCatalog(profit.PropertyNames{Cost: "Cost"}, []profit.Marketplace{{Key: "AMAZON"}})
	require.NoError(t, err)

	return NewEngine(Options{
		ServiceName: "order-profit",
		MaxBodySize: 1 << 20,
		CORS:        middleware.DefaultCORSConfig(),
		Security:    middleware.DefaultSecurityConfig(),
		RateLimiter: limiter,
	}, Handlers{
		System:      handler.NewSystemHandler("order-profit", "test", nil),
		Enrichment:  handler.NewEnrichmentHandler(fakeEnricher{}),
		Profit:      handler.NewProfitHandler(fakeCalculator{}, fakeRunner{}),
		Report:      handler.NewReportHandler(fakeExporter{}),
		FeeOverride: handler.NewFeeOverrideHandler(fakeOverrides{}),
		Marketplace: handler.NewMarketplaceHandler(catalog),
		Auth:        handler.NewAuthHandler(fakeSessions{}),
	})
}

func TestNewEngine_Routes(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/system/info", "", http.StatusOK},
		{http.MethodPost, "/api/v1/enrichment", `{"auth_token":"t","order_ids":["a"]}`, http.StatusOK},
		{http.MethodPost, "/api/v1/profit/calculate", `{"orders":[]}`, http.StatusOK},
		{http.MethodPost, "/api/v1/profit/recalculate", `{"rows":[]}`, http.StatusOK},
		{http.MethodPost, "/api/v1/profit/run", `{"from_date":"2024-01-01","to_date":"2024-01-31"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/reports/summary", `{"rows":[]}`, http.StatusOK},
		{http.MethodPost, "/api/v1/reports/export", `{"rows":[]}`, http.StatusOK},
		{http.MethodGet, "/api/v1/fee-overrides", "", http.StatusOK},
		{http.MethodPut, "/api/v1/fee-overrides/AMAZON", `{"percent":"12"}`, http.StatusOK},
		{http.MethodDelete, "/api/v1/fee-overrides/AMAZON", "", http.StatusNoContent},
		{http.MethodGet, "/api/v1/marketplaces", "", http.StatusOK},
		{http.MethodPost, "/api/v1/auth/token", "", http.StatusOK},
		{http.MethodGet, "/api/v1/orders", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestNewEngine_RateLimitsUpstreamRoutes(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Hour)
	t.Cleanup(limiter.Stop)
	engine := newTestEngine(t, limiter)

	post := func(path, body string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	enrich := `{"auth_token":"t","order_ids":["a"]}`
	assert.Equal(t, http.StatusOK, post("/api/v1/enrichment", enrich))
	assert.Equal(t, http.StatusTooManyRequests, post("/api/v1/enrichment", enrich))

	// local calculation is never limited
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post("/api/v1/profit/calculate", `{"orders":[]}`))
	}
}

func TestNewEngine_ServesLocalExports(t *testing.T) {
	files := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	})
	engine := NewEngine(Options{ExportFiles: files}, Handlers{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/exports/2024/03/run.csv", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/exports/2024/03/run.csv", w.Body.String())
}

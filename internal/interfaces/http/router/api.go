package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/infrastructure/logger"
	"github.com/orderprofit/backend/internal/infrastructure/telemetry"
	"github.com/orderprofit/backend/internal/interfaces/http/handler"
	"github.com/orderprofit/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	System      *handler.SystemHandler
	Enrichment  *handler.EnrichmentHandler
	Profit      *handler.ProfitHandler
	Report      *handler.ReportHandler
	FeeOverride *handler.FeeOverrideHandler
	Marketplace *handler.MarketplaceHandler
	Auth        *handler.AuthHandler
}

// Options configure the global middleware chain
type Options struct {
	Logger         *zap.Logger
	ServiceName    string
	TracingEnabled bool
	MeterProvider  *telemetry.MeterProvider
	MaxBodySize    int64
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	TrustedProxies []string
	// RateLimiter guards the routes that call the upstream API; nil disables it
	RateLimiter *middleware.RateLimiter
	// ExportFiles serves locally stored exports under /exports; nil when
	// exports go to an object store
	ExportFiles http.Handler
}

// NewEngine builds the gin engine with the global middleware chain and every
// API route.
func NewEngine(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	_ = engine.SetTrustedProxies(opts.TrustedProxies)

	engine.Use(
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: opts.ServiceName,
			Enabled:     opts.TracingEnabled,
		}),
		middleware.TracingAttributeInjector(),
		logger.GinMiddleware(opts.Logger),
		logger.Recovery(opts.Logger),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(opts.MeterProvider, opts.Logger),
		middleware.Secure(opts.Security),
		middleware.CORS(opts.CORS),
	)
	if opts.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if opts.ExportFiles != nil {
		files := gin.WrapH(http.StripPrefix("/exports", opts.ExportFiles))
		engine.GET("/exports/*key", files)
		engine.HEAD("/exports/*key", files)
	}

	var limit gin.HandlerFunc
	if opts.RateLimiter != nil {
		limit = middleware.RateLimit(opts.RateLimiter)
	}

	r := NewRouter(engine, DefaultAPIVersion)
	if h.System != nil {
		r.Register(NewDomainGroup("system", "/system").GET("/info", h.System.GetSystemInfo))
	}
	if h.Enrichment != nil {
		r.Register(NewDomainGroup("enrichment", "/enrichment").
			Use(limit).
			POST("", h.Enrichment.Enrich))
	}
	if h.Profit != nil {
		r.Register(NewDomainGroup("profit", "/profit").
			POST("/calculate", h.Profit.Calculate).
			POST("/recalculate", h.Profit.Recalculate))
		r.Register(NewDomainGroup("pipeline", "/profit").
			Use(limit).
			POST("/run", h.Profit.Run))
	}
	if h.Report != nil {
		r.Register(NewDomainGroup("reports", "/reports").
			POST("/summary", h.Report.Summary).
			POST("/export", h.Report.Export))
	}
	if h.FeeOverride != nil {
		r.Register(NewDomainGroup("fee-overrides", "/fee-overrides").
			GET("", h.FeeOverride.List).
			PUT("/:source", h.FeeOverride.Set).
			DELETE("/:source", h.FeeOverride.Delete))
	}
	if h.Marketplace != nil {
		r.Register(NewDomainGroup("marketplaces", "/marketplaces").GET("", h.Marketplace.List))
	}
	if h.Auth != nil {
		r.Register(NewDomainGroup("auth", "/auth").
			Use(limit).
			POST("/token", h.Auth.Token))
	}
	r.Setup()

	return engine
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	enrichmentapp "github.com/orderprofit/backend/internal/application/enrichment"
	integrationapp "github.com/orderprofit/backend/internal/application/integration"
	pipelineapp "github.com/orderprofit/backend/internal/application/pipeline"
	profitapp "github.com/orderprofit/backend/internal/application/profit"
	reportapp "github.com/orderprofit/backend/internal/application/report"
	"github.com/orderprofit/backend/internal/infrastructure/cache"
	"github.com/orderprofit/backend/internal/infrastructure/config"
	"github.com/orderprofit/backend/internal/infrastructure/linnworks"
	"github.com/orderprofit/backend/internal/infrastructure/logger"
	"github.com/orderprofit/backend/internal/infrastructure/persistence"
	"github.com/orderprofit/backend/internal/infrastructure/storage"
	"github.com/orderprofit/backend/internal/infrastructure/strategy"
	"github.com/orderprofit/backend/internal/infrastructure/telemetry"
	"github.com/orderprofit/backend/internal/interfaces/http/handler"
	"github.com/orderprofit/backend/internal/interfaces/http/middleware"
	"github.com/orderprofit/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	tel := setupTelemetry(ctx, cfg, baseLog)
	log := telemetry.Bridge(baseLog, tel.logs, logger.ParseLevel(cfg.Telemetry.LogExportLevel))
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting order profit service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.GormLevel))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	dbSystem := telemetry.DBSystemFor(cfg.Database.Driver)
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   dbSystem,
	}, log).RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, tel.meter, telemetry.DBMetricsConfig{
		Enabled:  cfg.Telemetry.MetricsEnabled,
		DBSystem: dbSystem,
	}, log)
	if err != nil {
		log.Warn("Database metrics disabled", zap.Error(err))
	}
	if dbMetrics != nil {
		defer dbMetrics.Stop()
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	// Marketplace catalog and formulas
	catalog, err := config.LoadCatalog(cfg.Marketplaces.CatalogFile)
	if err != nil {
		log.Fatal("Failed to load marketplace catalog", zap.Error(err))
	}
	formulas, err := strategy.NewRegistryWithDefaults()
	if err != nil {
		log.Fatal("Failed to register profit formulas", zap.Error(err))
	}

	// Upstream clients
	lwConfig := &linnworks.Config{
		APIBaseURL:          cfg.Linnworks.APIBaseURL,
		AuthURL:             cfg.Linnworks.AuthURL,
		ApplicationID:       cfg.Linnworks.ApplicationID,
		ApplicationSecret:   cfg.Linnworks.ApplicationSecret,
		InstallToken:        cfg.Linnworks.Token,
		TimeoutSeconds:      cfg.Linnworks.TimeoutSeconds,
		DefaultLookbackDays: cfg.Linnworks.DefaultLookbackDays,
	}
	lwClient, err := linnworks.NewClient(lwConfig, catalog)
	if err != nil {
		log.Fatal("Failed to create Linnworks client", zap.Error(err))
	}
	credentials := integrationapp.NewCredentialProvider(linnworks.NewAuthClient(lwConfig), integrationapp.DefaultSessionTTL, log)

	// Fee lookup cache
	feeCache := cache.NewFeeCacheFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
	defer func() {
		_ = feeCache.Close()
	}()
	cachedFees := enrichmentapp.NewCachedFeeLookup(lwClient, feeCache, cfg.Redis.FeeCacheTTL, log)

	// Application services
	enrichmentService := enrichmentapp.NewService(lwClient, cachedFees, enrichmentapp.Config{
		BatchSize:   cfg.Enrichment.BatchSize,
		CallSpacing: cfg.Enrichment.CallSpacing,
		LookupDelay: cfg.Enrichment.LookupDelay,
		BatchPause:  cfg.Enrichment.BatchPause,
	}, log)
	profitService := profitapp.NewService(
		profitapp.NewEngine(catalog, formulas),
		persistence.NewGormFeeOverrideRepository(db.DB),
		log,
	)
	pipelineService := pipelineapp.NewService(lwClient, enrichmentService, profitService, credentials, log)
	exportStore, exportFiles := exportStorage(cfg, log)
	exportService := reportapp.NewExportService(exportStore, cfg.Storage.ExportPrefix, cfg.Storage.PresignExpiration, log)

	if tel.meter.IsEnabled() {
		pm, err := telemetry.NewPipelineMetrics(telemetry.PipelineMetricsConfig{
			Meter:  tel.meter.Meter("order-profit.pipeline"),
			Logger: log,
		})
		if err != nil {
			log.Warn("Pipeline metrics disabled", zap.Error(err))
		} else {
			enrichmentService.SetPipelineMetrics(pm)
			cachedFees.SetPipelineMetrics(pm)
			profitService.SetPipelineMetrics(pm)
		}
	}

	// HTTP
	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRequests > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	securityConfig := middleware.DefaultSecurityConfig()
	if cfg.App.Env == "production" {
		securityConfig.HSTSMaxAge = 365 * 24 * time.Hour
	}

	engine := router.NewEngine(router.Options{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: tel.tracer.IsEnabled(),
		MeterProvider:  tel.meter,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		CORS:           corsConfig,
		Security:       securityConfig,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		RateLimiter:    limiter,
		ExportFiles:    exportFiles,
	}, router.Handlers{
		System: handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
			"database": func(context.Context) error { return db.Ping() },
		}),
		Enrichment:  handler.NewEnrichmentHandler(enrichmentService),
		Profit:      handler.NewProfitHandler(profitService, pipelineService),
		Report:      handler.NewReportHandler(exportService),
		FeeOverride: handler.NewFeeOverrideHandler(profitService),
		Marketplace: handler.NewMarketplaceHandler(catalog),
		Auth:        handler.NewAuthHandler(credentials),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tel.shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown incomplete", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// telemetryStack holds the OpenTelemetry providers and the profiler
type telemetryStack struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

// setupTelemetry starts every configured signal. A provider that fails to
// start is replaced by a disabled one so the service still comes up.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) *telemetryStack {
	t := cfg.Telemetry

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		SamplingRatio:     t.SamplingRatio,
		ServiceName:       t.ServiceName,
		ServiceVersion:    t.ServiceVersion,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
		tp, _ = telemetry.NewTracerProvider(ctx, telemetry.Config{}, log)
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           t.Enabled && t.MetricsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ExportInterval:    t.MetricsInterval,
		ServiceName:       t.ServiceName,
		ServiceVersion:    t.ServiceVersion,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Metrics disabled", zap.Error(err))
		mp, _ = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{}, log)
	}

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           t.Enabled && t.LogsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ServiceName:       t.ServiceName,
		ServiceVersion:    t.ServiceVersion,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Log export disabled", zap.Error(err))
		lp, _ = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{}, log)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         t.ProfilingEnabled,
		ServerAddress:   t.ProfilerEndpoint,
		ApplicationName: t.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env, "version": t.ServiceVersion},
	}, log)
	if err != nil {
		log.Warn("Profiling disabled", zap.Error(err))
		profiler, _ = telemetry.NewProfiler(telemetry.ProfilerConfig{}, log)
	}
	if profiler.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	return &telemetryStack{tracer: tp, meter: mp, logs: lp, profiler: profiler}
}

// shutdown flushes and stops every provider concurrently
func (s *telemetryStack) shutdown(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.tracer.Shutdown(ctx) })
	g.Go(func() error { return s.meter.Shutdown(ctx) })
	g.Go(func() error { return s.logs.Shutdown(ctx) })
	g.Go(s.profiler.Stop)
	return g.Wait()
}

// exportStorage returns the S3 store when enabled. Otherwise exports are
// kept in memory and also returned as the handler serving their links.
// A misconfigured S3 store disables uploads.
func exportStorage(cfg *config.Config, log *zap.Logger) (reportapp.ExportStorage, http.Handler) {
	if !cfg.Storage.Enabled {
		mem := storage.NewMemoryExportStorage("http://localhost:" + cfg.App.Port + "/exports")
		return mem, mem
	}
	s3Store, err := storage.NewS3ExportStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		log.Error("Export uploads disabled", zap.Error(err))
		return nil, nil
	}
	return s3Store, nil
}

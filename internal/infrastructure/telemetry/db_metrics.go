package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig configures query and pool metrics for the fee override store.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	DBSystem           string
}

// DBMetrics counts queries by operation and exposes pool stats as
// observable gauges read at collection time.
type DBMetrics struct {
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter

	meter     metric.Meter
	threshold time.Duration
	system    attribute.KeyValue
	logger    *zap.Logger

	mu       sync.Mutex
	poolReg  metric.Registration
	stopOnce sync.Once
}

// NewDBMetrics creates the query instruments on meter. Pool gauges are added
// by ObservePool.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.SlowQueryThreshold
	if threshold <= 0 {
		threshold = DefaultSlowQueryThreshold
	}

	m := &DBMetrics{
		meter:     meter,
		threshold: threshold,
		system:    AttrDBSystem.String(cfg.DBSystem),
		logger:    logger,
	}
	var err error
	if m.queryTotal, err = NewCounter(meter, "db_query_total",
		"Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Queries slower than the slow query threshold, by table", "{query}"); err != nil {
		return nil, err
	}
	m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ObservePool reports sqlDB.Stats() on every collection until Stop.
func (m *DBMetrics) ObservePool(sqlDB *sql.DB) error {
	conns, err := m.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Pooled connections by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create gauge db_pool_connections: %w", err)
	}
	limit, err := m.meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Configured connection limit, 0 when unlimited"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create gauge db_pool_connections_max: %w", err)
	}
	waits, err := m.meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connection requests that had to wait"), metric.WithUnit("{wait}"))
	if err != nil {
		return fmt.Errorf("failed to create counter db_pool_wait_total: %w", err)
	}

	reg, err := m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(limit, int64(stats.MaxOpenConnections), metric.WithAttributes(m.system))
		o.ObserveInt64(waits, stats.WaitCount, metric.WithAttributes(m.system))
		for state, n := range map[string]int{
			"idle":   stats.Idle,
			"in_use": stats.InUse,
			"open":   stats.OpenConnections,
		} {
			o.ObserveInt64(conns, int64(n), metric.WithAttributes(m.system, AttrDBState.String(state)))
		}
		return nil
	}, conns, limit, waits)
	if err != nil {
		return fmt.Errorf("failed to register pool callback: %w", err)
	}

	m.mu.Lock()
	m.poolReg = reg
	m.mu.Unlock()
	return nil
}

// Stop detaches the pool callback. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		reg := m.poolReg
		m.poolReg = nil
		m.mu.Unlock()
		if reg == nil {
			return
		}
		if err := reg.Unregister(); err != nil {
			m.logger.Warn("Failed to unregister pool stats callback", zap.Error(err))
		}
	})
}

// RecordQuery counts one query and its latency, and marks it slow when it
// crossed the threshold.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	op := AttrDBOperation.String(operation)
	m.queryTotal.Inc(ctx, m.system, op)
	m.queryDuration.RecordDuration(ctx, duration, m.system, op)

	if duration <= m.threshold {
		return
	}
	if table == "" {
		table = "unknown"
	}
	m.slowQueryTotal.Inc(ctx, m.system, AttrDBTable.String(table))
}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string { return "db_metrics" }

// Initialize implements gorm.Plugin by timing every gorm operation.
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	return registerGormHooks(db, "db_metrics", markQueryStart, func(tx *gorm.DB, op string) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		elapsed, _ := queryElapsed(ctx)
		m.RecordQuery(ctx, op, tx.Statement.Table, elapsed)
	})
}

// RegisterDBMetrics installs DBMetrics on db and observes its pool. It
// returns nil when metrics are disabled or no meter is exporting.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled || !mp.IsEnabled() {
		logger.Debug("Database metrics disabled, skipping registration")
		return nil, nil
	}

	m, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := m.ObservePool(sqlDB); err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		m.Stop()
		return nil, err
	}
	logger.Info("Database metrics registered",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", m.threshold),
	)
	return m, nil
}

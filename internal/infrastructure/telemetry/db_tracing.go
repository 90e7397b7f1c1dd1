package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSlowQueryThreshold marks fee-override queries as slow.
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled            bool
	LogFullSQL         bool // include bound variables in db.statement
	SlowQueryThreshold time.Duration
	DBSystem           string
}

// DBSystemFor maps a configured database driver to its semconv db.system value.
func DBSystemFor(driver string) string {
	switch driver {
	case "postgres", "postgresql":
		return "postgresql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return driver
	}
}

// DBTracingPlugin registers otelgorm plus a slow query marker.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = DefaultSlowQueryThreshold
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs otelgorm on db and annotates its spans with
// row counts, errors and slow query events.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
		otelgorm.WithAttributes(AttrDBSystem.String(p.config.DBSystem)),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := registerGormHooks(db, "otel_trace", markQueryStart, p.annotateSpan); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThreshold),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) annotateSpan(db *gorm.DB, _ string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if elapsed, ok := queryElapsed(ctx); ok && elapsed > p.config.SlowQueryThreshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThreshold.Milliseconds()),
		))
	}
}

// =============================================================================
// Shared GORM hook registration
// =============================================================================

type queryStartKey struct{}

func markQueryStart(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func queryElapsed(ctx context.Context) (time.Duration, bool) {
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// gormRegistrar is satisfied by the callback handles gorm returns from
// Before and After.
type gormRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

type gormStage struct {
	name   string
	op     string // empty: detect from SQL
	before func(anchor string) gormRegistrar
	after  func(anchor string) gormRegistrar
}

func gormStages(db *gorm.DB) []gormStage {
	cb := db.Callback()
	return []gormStage{
		{"create", "INSERT",
			func(a string) gormRegistrar { return cb.Create().Before(a) },
			func(a string) gormRegistrar { return cb.Create().After(a) }},
		{"query", "SELECT",
			func(a string) gormRegistrar { return cb.Query().Before(a) },
			func(a string) gormRegistrar { return cb.Query().After(a) }},
		{"update", "UPDATE",
			func(a string) gormRegistrar { return cb.Update().Before(a) },
			func(a string) gormRegistrar { return cb.Update().After(a) }},
		{"delete", "DELETE",
			func(a string) gormRegistrar { return cb.Delete().Before(a) },
			func(a string) gormRegistrar { return cb.Delete().After(a) }},
		{"row", "",
			func(a string) gormRegistrar { return cb.Row().Before(a) },
			func(a string) gormRegistrar { return cb.Row().After(a) }},
		{"raw", "",
			func(a string) gormRegistrar { return cb.Raw().Before(a) },
			func(a string) gormRegistrar { return cb.Raw().After(a) }},
	}
}

// registerGormHooks installs before and after callbacks around every gorm
// operation under the given name prefix.
func registerGormHooks(db *gorm.DB, prefix string, before func(*gorm.DB), after func(db *gorm.DB, operation string)) error {
	for _, st := range gormStages(db) {
		anchor := "gorm:" + st.name
		if before != nil {
			if err := st.before(anchor).Register(prefix+":before_"+st.name, before); err != nil {
				return err
			}
		}
		op := st.op
		err := st.after(anchor).Register(prefix+":after_"+st.name, func(tx *gorm.DB) {
			operation := op
			if operation == "" {
				operation = detectOperationType(tx.Statement.SQL.String())
			}
			after(tx, operation)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// detectOperationType derives the SQL verb of a raw statement.
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}

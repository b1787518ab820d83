package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in db.statement; never in production
	SlowQueryThresh time.Duration
	DBName          string
}

const startedAtKey = "telemetry:started_at"

// RegisterDBTracing installs the otelgorm plugin plus a callback that tags
// spans of queries slower than SlowQueryThresh. Row lock waits on stock rows
// surface as slow UPDATE spans.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if cfg.SlowQueryThresh > 0 {
		if err := registerSlowQueryCallbacks(db, cfg.SlowQueryThresh); err != nil {
			return err
		}
	}
	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func registerSlowQueryCallbacks(db *gorm.DB, threshold time.Duration) error {
	before := func(tx *gorm.DB) { tx.InstanceSet(startedAtKey, time.Now()) }
	after := func(tx *gorm.DB) { markSlowQuery(tx, threshold) }

	cb := db.Callback()
	steps := []struct {
		name   string
		before error
		after  error
	}{
		{"create",
			cb.Create().Before("gorm:create").Register("telemetry:before_create", before),
			cb.Create().After("gorm:create").Register("telemetry:after_create", after)},
		{"query",
			cb.Query().Before("gorm:query").Register("telemetry:before_query", before),
			cb.Query().After("gorm:query").Register("telemetry:after_query", after)},
		{"update",
			cb.Update().Before("gorm:update").Register("telemetry:before_update", before),
			cb.Update().After("gorm:update").Register("telemetry:after_update", after)},
		{"raw",
			cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before),
			cb.Raw().After("gorm:raw").Register("telemetry:after_raw", after)},
	}
	for _, s := range steps {
		if s.before != nil {
			return s.before
		}
		if s.after != nil {
			return s.after
		}
	}
	return nil
}

func markSlowQuery(tx *gorm.DB, threshold time.Duration) {
	v, ok := tx.InstanceGet(startedAtKey)
	if !ok {
		return
	}
	started, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(started)
	if elapsed < threshold || tx.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(tx.Statement.Context)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
		attribute.String("db.table", tx.Statement.Table),
	)
}

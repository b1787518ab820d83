// Command server runs the retail core HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	appbilling "github.com/retailcore/backend/internal/application/billing"
	appinv "github.com/retailcore/backend/internal/application/inventory"
	appsales "github.com/retailcore/backend/internal/application/sales"
	apptransfer "github.com/retailcore/backend/internal/application/transfer"
	"github.com/retailcore/backend/internal/domain/billing"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/auth"
	"github.com/retailcore/backend/internal/infrastructure/cache"
	"github.com/retailcore/backend/internal/infrastructure/config"
	"github.com/retailcore/backend/internal/infrastructure/event"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/persistence"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"github.com/retailcore/backend/internal/interfaces/http/handler"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
	"github.com/retailcore/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: search ./, ./configs, /app)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func run(cfg *config.Config, log *zap.Logger) (err error) {
	log.Info("Starting retail core",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return multierr.Append(fmt.Errorf("connect database: %w", err), tracer.Shutdown(context.Background()))
	}
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Database.SlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		return multierr.Combine(fmt.Errorf("register db tracing: %w", err), db.Close(), tracer.Shutdown(context.Background()))
	}

	idempotency, err := newIdempotencyStore(ctx, cfg, log)
	if err != nil {
		return multierr.Combine(err, db.Close(), tracer.Shutdown(context.Background()))
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err = multierr.Combine(err,
			closeIfSet(idempotency),
			db.Close(),
			tracer.Shutdown(shutdownCtx),
		)
	}()

	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewMetrics(cfg.Metrics.Namespace)
		if err := metrics.Registry().Register(telemetry.NewStockStatusCollector(db.DB, cfg.Metrics.Namespace, log)); err != nil {
			return fmt.Errorf("register stock collector: %w", err)
		}
		pool, err := db.Pool()
		if err != nil {
			return err
		}
		if err := metrics.Registry().Register(collectors.NewDBStatsCollector(pool, cfg.Database.DBName)); err != nil {
			return fmt.Errorf("register pool collector: %w", err)
		}
	}

	bus := event.NewInMemoryEventBus(log)
	if metrics != nil {
		bus.WithObserver(metrics.ObserveEvent)
	}
	bus.Subscribe(appinv.NewLowStockHandler(log).WithNotifier(appinv.NewLoggingStockAlertNotifier(log)))

	scope := persistence.NewGormTransactionScope(db.DB, bus, log)
	ledger := appinv.NewStockLedger(scope, log)
	billingService := appbilling.NewService(scope, ledger, billing.NewBillNumberGenerator(cfg.Billing.BillNumberAttempts), log)
	salesService := appsales.NewService(scope, ledger, log)
	transferService := apptransfer.NewService(scope, ledger, log)
	if metrics != nil {
		ledger.WithRecorder(metrics)
		billingService.WithRecorder(metrics)
		salesService.WithRecorder(metrics)
		transferService.WithRecorder(metrics)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.AllowOrigins

	engineCfg := router.EngineConfig{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        tracer.IsEnabled(),
		Metrics:        metrics,
		MetricsPath:    cfg.Metrics.Path,
		CORS:           cors,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Verifier:       auth.NewJWTService(cfg.JWT),
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Idempotency.TTL,
	}
	engine, err := router.NewEngine(engineCfg, handler.NewSystemHandler(db, version), router.Handlers{
		Inventory: handler.NewInventoryHandler(ledger),
		Transfer:  handler.NewTransferHandler(transferService),
		Billing:   handler.NewBillingHandler(billingService),
		Sales:     handler.NewSalesHandler(salesService),
	})
	if err != nil {
		return fmt.Errorf("build http engine: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	log.Info("Server exited gracefully")
	return nil
}

// newIdempotencyStore returns nil when the Idempotency-Key middleware is off,
// Redis when a host is configured and the in-process store otherwise
func newIdempotencyStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Idempotency.Enabled {
		log.Info("Idempotency keys disabled")
		return nil, nil
	}
	if cfg.Redis.Host == "" {
		log.Info("Idempotency keys stored in memory")
		return cache.NewInMemoryIdempotencyStore(), nil
	}
	store, err := cache.NewRedisIdempotencyStore(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info("Idempotency keys stored in redis", zap.String("addr", cfg.Redis.Addr()))
	return store, nil
}

func closeIfSet(store shared.IdempotencyStore) error {
	if store == nil {
		return nil
	}
	return store.Close()
}

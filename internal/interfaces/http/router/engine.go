package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"github.com/retailcore/backend/internal/interfaces/http/handler"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

// EngineConfig holds what the HTTP engine is assembled from
type EngineConfig struct {
	Logger         *zap.Logger
	ServiceName    string
	Tracing        bool
	Metrics        *telemetry.Metrics
	MetricsPath    string
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
	Verifier       middleware.TokenVerifier
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
}

// NewEngine builds the gin engine with the global middleware chain, the
// probe and metrics endpoints and the authenticated API.
//
// Order: request ID, recovery, tracing, metrics, request logging, CORS,
// body limit. API routes add authentication then idempotency.
func NewEngine(cfg EngineConfig, system *handler.SystemHandler, handlers Handlers) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID(), logger.Recovery(cfg.Logger))
	if cfg.Tracing {
		engine.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.GinMiddleware())
	}
	engine.Use(logger.GinMiddleware(cfg.Logger), middleware.CORSWithConfig(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/health", system.Health)
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		engine.GET(cfg.MetricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.Authenticate(cfg.Verifier))
	if cfg.Idempotency != nil {
		r.Use(middleware.Idempotency(cfg.Idempotency, cfg.IdempotencyTTL))
	}
	for _, g := range handlers.Groups() {
		r.Register(g)
	}
	r.Setup()
	return engine, nil
}

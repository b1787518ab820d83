package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/retailcore/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:     false,
		ServiceName: "retail-core",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	_, span := tp.Tracer("test").Start(ctx, "noop")
	assert.False(t, span.IsRecording())
	span.End()
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestRegisterDBTracing(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)

	require.NoError(t, telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{Enabled: false}, zap.NewNop()))

	cfg := telemetry.DBTracingConfig{Enabled: true, DBName: "retail", SlowQueryThresh: 1}
	require.NoError(t, telemetry.RegisterDBTracing(db, cfg, zap.NewNop()))
	assert.NotNil(t, db.Callback().Query().Get("telemetry:after_query"))

	persistencetest.SeedBusiness(t, db, "Traced")
}

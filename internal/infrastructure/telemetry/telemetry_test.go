package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupLogger(t *testing.T) {
	logger, err := SetupLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), parseLevel("debug")))

	logger, err = SetupLogger("bogus")
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), parseLevel("debug")))
}

func TestNewZapLogger(t *testing.T) {
	logger, err := NewZapLogger("warn", "production")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	logger, err = NewZapLogger("debug", "development")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}

func TestDisabledTelemetryIsNoop(t *testing.T) {
	p, err := InitializeOpenTelemetry(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestTraceFields(t *testing.T) {
	assert.Empty(t, TraceFields(context.Background()))

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	assert.Len(t, TraceFields(ctx), 2)
}

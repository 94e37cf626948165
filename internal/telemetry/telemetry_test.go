package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepanel/homepanel/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "aqipoller",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)
	assert.False(t, provider.Enabled())
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestInit_Enabled(t *testing.T) {
	ctx := context.Background()

	// The gRPC exporters connect lazily, so no collector is needed to start.
	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "screenwaker",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "127.0.0.1:1",
		ExportInterval: time.Hour,
		Enabled:        true,
	})
	require.NoError(t, err)
	assert.True(t, provider.Enabled())

	counter, err := telemetry.Meter("screenwaker").Int64Counter("homepanel.test.ticks")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	shutdownCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_ = provider.Shutdown(shutdownCtx) //nolint:errcheck // no collector to flush to

	assert.False(t, provider.Enabled())
	assert.NoError(t, provider.Shutdown(ctx), "second shutdown is a no-op")
}

func TestProvider_ShutdownZeroValue(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestGlobalAccessors(t *testing.T) {
	assert.NotNil(t, telemetry.Tracer("screenwaker"))
	assert.NotNil(t, telemetry.Meter("screenwaker"))
}

func TestNoopInstrumentsRecord(t *testing.T) {
	counter, err := telemetry.Meter("eventdigest").Int64Counter("test.counter")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		counter.Add(context.Background(), 1)
	})
}

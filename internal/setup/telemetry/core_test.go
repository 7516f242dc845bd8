package telemetry_test

import (
	"errors"
	"testing"

	"github.com/robalyx/antiraid/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestCore_ForwardsErrors(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	logger := zap.New(telemetry.NewCore(zapcore.InfoLevel, telemetry.WithTracerProvider(provider))).
		Named("relay").
		With(zap.Uint64("guild_id", 42))

	logger.Info("Relay started")
	logger.Error("Failed to publish event", zap.Error(errors.New("connection refused")), zap.Int("attempt", 3))

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "error.application", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := make(map[attribute.Key]string)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value.AsString()
	}

	assert.Equal(t, "Failed to publish event", attrs["error.message"])
	assert.Equal(t, "relay", attrs["logger"])
	assert.Equal(t, "42", attrs["guild_id"])
	assert.Equal(t, "3", attrs["attempt"])
	assert.Equal(t, "connection refused", attrs["error"])
}

func TestCore_DisabledLevel(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	logger := zap.New(telemetry.NewCore(zapcore.FatalLevel, telemetry.WithTracerProvider(provider)))
	logger.Error("ignored")

	assert.Empty(t, recorder.Ended())
}

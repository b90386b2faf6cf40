package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewDefaults(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestInitReplacesGlobal(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Set(prev) })

	require.NoError(t, Init(Config{Level: "debug", Encoding: "console"}))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestWithContextAddsFields(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Set(prev) })

	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))

	ctx := context.WithValue(context.Background(), RegistryKey, "level-1")
	ctx = context.WithValue(ctx, KindKey, "Spark")
	ctx = context.WithValue(ctx, TickKey, uint64(42))

	WithContext(ctx).Info("acquired")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "level-1", fields["registry"])
	assert.Equal(t, "Spark", fields["kind"])
	assert.Equal(t, uint64(42), fields["tick"])
}

func TestFromContextKeepsBase(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core).With(zap.String("component", "sim"))

	ctx := context.WithValue(context.Background(), TickKey, uint64(7))
	ctx = context.WithValue(ctx, KindKey, "Bolt")
	// an inner value shadows the outer one
	ctx = context.WithValue(ctx, KindKey, "Spark")

	FromContext(ctx, base).Warn("not a projectile")
	FromContext(context.Background(), base).Info("plain")

	require.Equal(t, 2, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "sim", fields["component"])
	assert.Equal(t, "Spark", fields["kind"])
	assert.Equal(t, uint64(7), fields["tick"])
	assert.NotContains(t, fields, "registry")
	assert.NotContains(t, logs.All()[1].ContextMap(), "tick")
}

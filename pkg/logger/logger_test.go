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

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(Config{Level: "warn", Encoding: "console"})
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestInitReplacesGlobal(t *testing.T) {
	require.NoError(t, Init(Config{Level: "debug"}))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init(Config{Level: "error"}))
	assert.False(t, Get().Core().Enabled(zapcore.WarnLevel))
}

func TestFromContextAddsFields(t *testing.T) {
	ctx := context.WithValue(context.Background(), PoolKey, "pool-1")
	ctx = context.WithValue(ctx, WorkerKey, 3)
	ctx = context.WithValue(ctx, RunIDKey, "run-7")

	core, logs := observer.New(zapcore.InfoLevel)
	FromContext(ctx, zap.New(core)).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, map[string]interface{}{
		"pool":   "pool-1",
		"worker": int64(3),
		"run_id": "run-7",
	}, logs.All()[0].ContextMap())
}

func TestFieldsIgnoresMissingAndMistypedValues(t *testing.T) {
	assert.Empty(t, Fields(context.Background()))

	ctx := context.WithValue(context.Background(), WorkerKey, "three")
	assert.Empty(t, Fields(ctx))
}

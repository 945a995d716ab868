package spanline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Default(t *testing.T) {
	logger, warnings, err := New(Default())
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Empty(t, warnings)
	defer func() { _ = logger.Sync() }()

	// Should not panic.
	logger.Info(context.Background(), "test message", zap.String("key", "value"))
}

func TestNew_FileWithoutPathWarns(t *testing.T) {
	cfg := Default()
	cfg.Console.Enabled = false
	cfg.File.Enabled = true // no path

	logger, warnings, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.Len(t, warnings, 1)
	assert.Equal(t, "file", warnings[0].Component)

	// Falls back to stdout; still usable.
	logger.Info(context.Background(), "still works")
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, sink := newTestLogger()
	logger.SetLevel("warn")

	ctx := context.Background()
	logger.Trace(ctx, "nope")
	logger.Debug(ctx, "nope")
	logger.Info(ctx, "nope")
	logger.Warn(ctx, "yes")
	logger.Error(ctx, "yes", nil)

	assert.Len(t, sink.Lines(), 2)
	assert.Equal(t, "WARN", logger.GetLevel())
}

func TestLogger_LevelsInOutput(t *testing.T) {
	logger, sink := newTestLogger()
	ctx := context.Background()

	logger.Trace(ctx, "t")
	logger.Debug(ctx, "d")
	logger.Info(ctx, "i")
	logger.Warn(ctx, "w")
	logger.Error(ctx, "e", nil)

	lines := sink.Lines()
	require.Len(t, lines, 5)
	for i, want := range []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"} {
		env := decodeLine(t, lines[i])
		assert.Equal(t, want, env.Level)
	}
}

func TestLogger_Named(t *testing.T) {
	logger, sink := newTestLogger()
	child := logger.Named("db").Named("pool")

	child.Info(context.Background(), "connected")

	lines := sink.Lines()
	require.Len(t, lines, 1)
	env := decodeLine(t, lines[0])
	assert.Equal(t, "test.db.pool", env.Target)
}

func TestLogger_NamedSharesSpansAndLevel(t *testing.T) {
	logger, sink := newTestLogger()
	child := logger.Named("child")

	// A span started by the parent is visible from events the child emits.
	ctx, span := logger.Start(context.Background(), "op")
	child.Info(ctx, "from child")
	span.End()

	// Level changes propagate both ways.
	child.SetLevel("error")
	logger.Info(context.Background(), "filtered")

	lines := sink.Lines()
	require.Len(t, lines, 1)
	env := decodeLine(t, lines[0])
	require.NotNil(t, env.Span)
	assert.Equal(t, "op", env.Span["name"])
}

func TestLogger_ErrorField(t *testing.T) {
	logger, sink := newTestLogger()
	logger.Error(context.Background(), "operation failed", errors.New("bad disk"),
		zap.String("op", "write"))

	lines := sink.Lines()
	require.Len(t, lines, 1)
	env := decodeLine(t, lines[0])
	assert.Equal(t, "operation failed", env.Fields["message"])
	assert.Equal(t, "bad disk", env.Fields["error"])
	assert.Equal(t, "write", env.Fields["op"])

	// message leads, then error, then user fields.
	assertKeyOrder(t, lines[0], "message", "error", "op")
}

func TestLogger_ErrorWithNilError(t *testing.T) {
	logger, sink := newTestLogger()
	logger.Error(context.Background(), "no cause", nil)

	lines := sink.Lines()
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], `"error"`)
}

func TestSpan_EndIsIdempotent(t *testing.T) {
	logger, sink := newTestLogger()

	ctx, span := logger.Start(context.Background(), "op")
	span.End()
	span.End()
	span.Record(zap.Int("late", 1)) // no-op after End

	logger.Info(ctx, "after end")
	lines := sink.Lines()
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], `"span":`)
}

func TestSpan_NilSafe(t *testing.T) {
	var span *Span
	assert.NotPanics(t, func() {
		span.Record(zap.Int("n", 1))
		span.End()
		_ = span.ID()
	})
}

func TestGlobal_SetAndUse(t *testing.T) {
	logger, sink := newTestLogger()
	SetGlobal(logger)

	ctx, span := Start(context.Background(), "global span")
	Info(ctx, "through global")
	span.End()
	require.NoError(t, Sync())

	lines := sink.Lines()
	require.Len(t, lines, 1)
	env := decodeLine(t, lines[0])
	require.NotNil(t, env.Span)
	assert.Equal(t, "global span", env.Span["name"])
}

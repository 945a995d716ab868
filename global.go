package spanline

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var (
	globalMu sync.RWMutex
	global   *Logger
)

// SetGlobal sets the global Logger instance.
func SetGlobal(l *Logger) {
	globalMu.Lock()
	global = l
	globalMu.Unlock()
}

// L returns the global Logger instance.
func L() *Logger {
	globalMu.RLock()
	g := global
	globalMu.RUnlock()
	if g == nil {
		panic("spanline: global not set, call SetGlobal first")
	}
	return g
}

func getGlobal() *Logger {
	globalMu.RLock()
	g := global
	globalMu.RUnlock()
	if g == nil {
		g, _, _ = New(Default())
		SetGlobal(g)
	}
	return g
}

// Start creates a span using the global logger.
func Start(ctx context.Context, name string, fields ...zap.Field) (context.Context, *Span) {
	return getGlobal().Start(ctx, name, fields...)
}

// Trace emits a TRACE event using the global logger.
func Trace(ctx context.Context, msg string, fields ...zap.Field) {
	getGlobal().Trace(ctx, msg, fields...)
}

// Debug emits a DEBUG event using the global logger.
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	getGlobal().Debug(ctx, msg, fields...)
}

// Info emits an INFO event using the global logger.
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	getGlobal().Info(ctx, msg, fields...)
}

// Warn emits a WARN event using the global logger.
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	getGlobal().Warn(ctx, msg, fields...)
}

// Error emits an ERROR event using the global logger.
func Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	getGlobal().Error(ctx, msg, err, fields...)
}

// Named returns a child of the global logger.
func Named(name string) *Logger {
	return getGlobal().Named(name)
}

// Sync flushes the global logger.
func Sync() error {
	globalMu.RLock()
	g := global
	globalMu.RUnlock()
	if g == nil {
		return nil
	}
	return g.Sync()
}

package spanline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Logger is the front door: it creates spans, accepts events and dispatches
// both to the configured layers. All methods are safe for concurrent use.
//
// Example:
//
//	logger, warnings, err := spanline.New(spanline.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, w := range warnings {
//	    log.Printf("spanline warning: %v", w)
//	}
//
//	ctx, span := logger.Named("api.orders").Start(ctx, "get_order",
//	    zap.String("order_id", id))
//	defer span.End()
//
//	logger.Info(ctx, "order loaded", zap.Int("items", n))
type Logger struct {
	reg    *Registry
	layers []Layer
	target string
	lvl    *atomic.Int32 // shared by all children
}

// Warning represents a non-fatal initialization issue. New returns warnings
// instead of failing when optional outputs cannot be set up.
type Warning struct {
	Component string // "file", "console"
	Err       error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Component, w.Err)
}

// New creates a Logger with a JSON layer built from the configuration.
//
// Returns:
//   - *Logger: always a working logger (falls back to stdout)
//   - []Warning: non-fatal issues (e.g. file output misconfigured)
//   - error: fatal configuration errors (currently always nil, reserved)
func New(cfg Config) (*Logger, []Warning, error) {
	sink, warnings := buildSink(cfg)
	l := NewWithLayers(cfg.ServiceName, NewJSONLayer(sink))
	l.SetLevel(cfg.Level)
	return l, warnings, nil
}

// NewWithLayers creates a Logger dispatching to the given layers. Use this to
// capture to a custom sink or to observe spans with a custom Layer.
func NewWithLayers(target string, layers ...Layer) *Logger {
	lvl := &atomic.Int32{}
	lvl.Store(int32(TraceLevel))
	return &Logger{
		reg:    NewRegistry(),
		layers: layers,
		target: target,
		lvl:    lvl,
	}
}

// Named returns a child logger whose target extends the parent's with a "."
// separator. The target appears on every span and event the child produces.
func (l *Logger) Named(name string) *Logger {
	if name == "" {
		return l
	}
	target := name
	if l.target != "" {
		target = l.target + "." + name
	}
	return &Logger{
		reg:    l.reg,
		layers: l.layers,
		target: target,
		lvl:    l.lvl,
	}
}

// Start creates a span as a child of whatever span ctx carries, delivers its
// initial attributes to the layers, and returns a context carrying the new
// span. When ctx holds OpenTelemetry trace context, trace_id and span_id are
// recorded as span attributes for correlation.
func (l *Logger) Start(ctx context.Context, name string, fields ...zap.Field) (context.Context, *Span) {
	meta := SpanMeta{Target: l.target, Name: name}
	id := l.reg.Register(SpanIDFromContext(ctx), meta)

	attrs := fields
	if tf := extractTraceFields(ctx); len(tf) > 0 {
		attrs = make([]zap.Field, 0, len(fields)+len(tf))
		attrs = append(attrs, fields...)
		attrs = append(attrs, tf...)
	}

	for _, layer := range l.layers {
		layer.OnNewSpan(l.reg, id, meta, attrs)
	}

	span := &Span{id: id, logger: l}
	return ContextWithSpan(ctx, span), span
}

// --- Events ---

// Trace emits an event at TRACE level.
func (l *Logger) Trace(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, TraceLevel, msg, fields)
}

// Debug emits an event at DEBUG level.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, DebugLevel, msg, fields)
}

// Info emits an event at INFO level.
func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, InfoLevel, msg, fields)
}

// Warn emits an event at WARN level.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, WarnLevel, msg, fields)
}

// Error emits an event at ERROR level with an optional error.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	if err != nil {
		withErr := make([]zap.Field, 0, len(fields)+1)
		withErr = append(withErr, zap.Error(err))
		withErr = append(withErr, fields...)
		fields = withErr
	}
	l.log(ctx, ErrorLevel, msg, fields)
}

func (l *Logger) log(ctx context.Context, lvl Level, msg string, fields []zap.Field) {
	if !l.level().Enabled(lvl) {
		return
	}

	evFields := make([]zap.Field, 0, len(fields)+1)
	if msg != "" {
		evFields = append(evFields, zap.String("message", msg))
	}
	evFields = append(evFields, fields...)

	ev := Event{
		Time:   time.Now(),
		Level:  lvl,
		Target: l.target,
		Fields: evFields,
		Span:   SpanIDFromContext(ctx),
	}
	for _, layer := range l.layers {
		layer.OnEvent(l.reg, ev)
	}
}

// --- Lifecycle ---

// Sync flushes every layer that supports flushing.
func (l *Logger) Sync() error {
	var firstErr error
	for _, layer := range l.layers {
		if s, ok := layer.(interface{ Sync() error }); ok {
			if err := s.Sync(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Shutdown flushes outputs. The context is accepted for interface symmetry
// with other shutdown paths; flushing is synchronous.
func (l *Logger) Shutdown(_ context.Context) error {
	return l.Sync()
}

// SetLevel changes the minimum event level at runtime.
// Safe to call from multiple goroutines.
func (l *Logger) SetLevel(level string) {
	l.lvl.Store(int32(ParseLevel(level)))
}

// GetLevel returns the current minimum event level.
func (l *Logger) GetLevel() string {
	return l.level().String()
}

func (l *Logger) level() Level {
	return Level(l.lvl.Load())
}

// Registry exposes the logger's span registry, mainly for layers and tests.
func (l *Logger) Registry() *Registry {
	return l.reg
}

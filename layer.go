package spanline

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event is one point-in-time record dispatched to layers. Span is the id of
// the span the event fired inside, or zero when there was none.
type Event struct {
	Time   time.Time
	Level  Level
	Target string
	Fields []zapcore.Field
	Span   SpanID
}

// Layer observes the span lifecycle and event stream. Implementations must
// never return errors or panic into the calling program: every failure mode
// degrades to dropping the single span update or event involved.
type Layer interface {
	// OnNewSpan is the only chance to see a span's initial attributes.
	OnNewSpan(reg *Registry, id SpanID, meta SpanMeta, fields []zapcore.Field)

	// OnRecord merges additional attributes into an existing span.
	OnRecord(reg *Registry, id SpanID, fields []zapcore.Field)

	// OnSpanClose tells the layer the span is gone; any per-span state the
	// layer holds must not outlive it.
	OnSpanClose(reg *Registry, id SpanID)

	// OnEvent delivers one event along with the registry for span lookups.
	OnEvent(reg *Registry, ev Event)
}

// JSONLayer emits one self-contained JSON line per event: the event's own
// fields, the record of its enclosing span, and the records of the whole
// ancestor chain from root to leaf. Span records are accumulated in an
// explicit side-table keyed by span id, with per-span locking so concurrent
// updates to different spans never contend.
type JSONLayer struct {
	writer zapcore.WriteSyncer
	enc    zapcore.Encoder
	spans  sync.Map // SpanID -> *spanCell
}

type spanCell struct {
	mu  sync.Mutex
	rec *Record
}

var _ Layer = (*JSONLayer)(nil)

// NewJSONLayer creates a layer writing to ws. A nil ws means locked stdout.
func NewJSONLayer(ws zapcore.WriteSyncer) *JSONLayer {
	if ws == nil {
		ws = zapcore.Lock(os.Stdout)
	}
	return &JSONLayer{
		writer: ws,
		enc:    zapcore.NewJSONEncoder(envelopeEncoderConfig()),
	}
}

// envelopeEncoderConfig omits every entry-derived key: the envelope is built
// entirely from ordered fields so that timestamp/level/target/fields always
// precede span/spans, rather than whatever order the encoder would pick.
func envelopeEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        zapcore.OmitKey,
		LevelKey:       zapcore.OmitKey,
		NameKey:        zapcore.OmitKey,
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     zapcore.OmitKey,
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     rfc3339NanoUTC,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func rfc3339NanoUTC(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339Nano))
}

// OnNewSpan builds the span's record, target and name first, then the
// initial attributes. An id the registry does not know is skipped.
func (l *JSONLayer) OnNewSpan(reg *Registry, id SpanID, meta SpanMeta, fields []zapcore.Field) {
	if _, ok := reg.Meta(id); !ok {
		return
	}
	rec := NewRecord(meta.Target, meta.Name)
	rec.Apply(fields...)
	l.spans.Store(id, &spanCell{rec: rec})
}

// OnRecord merges new attributes into the span's existing record. Spans with
// no record (never seen, or already closed) are skipped.
func (l *JSONLayer) OnRecord(_ *Registry, id SpanID, fields []zapcore.Field) {
	cell, ok := l.cell(id)
	if !ok {
		return
	}
	cell.mu.Lock()
	cell.rec.Apply(fields...)
	cell.mu.Unlock()
}

// OnSpanClose drops the span's record; it lives exactly as long as the span.
func (l *JSONLayer) OnSpanClose(_ *Registry, id SpanID) {
	l.spans.Delete(id)
}

// OnEvent assembles and writes the event document. All failures, from
// encoding through the final flush, abandon the event silently: this layer
// never surfaces an error into the instrumented program.
func (l *JSONLayer) OnEvent(reg *Registry, ev Event) {
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	fieldsRec := newScratchRecord()
	fieldsRec.Apply(ev.Fields...)

	doc := make([]zapcore.Field, 0, 6)
	doc = append(doc,
		zap.String("timestamp", ts.UTC().Format(time.RFC3339Nano)),
		zap.String("level", ev.Level.String()),
		zap.String("target", ev.Target),
		zap.Object("fields", fieldsRec),
	)

	if ev.Span != 0 {
		if _, ok := reg.Meta(ev.Span); ok {
			if cell, ok := l.cell(ev.Span); ok {
				doc = append(doc, zap.Object("span", lockedRecord{cell}))
			}
			doc = append(doc, zap.Array("spans", &scopeMarshaler{
				layer: l,
				scope: reg.Scope(ev.Span),
			}))
		}
	}

	buf, err := l.enc.EncodeEntry(zapcore.Entry{}, doc)
	if err != nil {
		return
	}
	defer buf.Free()

	if _, err := l.writer.Write(buf.Bytes()); err != nil {
		return
	}
	_ = l.writer.Sync()
}

// Sync flushes the underlying sink.
func (l *JSONLayer) Sync() error {
	return l.writer.Sync()
}

func (l *JSONLayer) cell(id SpanID) (*spanCell, bool) {
	v, ok := l.spans.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*spanCell), true
}

// lockedRecord serializes a span's record while holding its cell lock, so an
// event on one goroutine never observes a half-applied update from another.
type lockedRecord struct {
	cell *spanCell
}

func (lr lockedRecord) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	lr.cell.mu.Lock()
	defer lr.cell.mu.Unlock()
	return lr.cell.rec.MarshalLogObject(enc)
}

// scopeMarshaler lazily serializes the ancestor chain, consuming the one-shot
// scope while the spans array is being written. Ancestors with no record in
// the side-table are skipped.
type scopeMarshaler struct {
	layer *JSONLayer
	scope *Scope
}

func (sm *scopeMarshaler) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	sm.scope.FromRoot(func(id SpanID) bool {
		if cell, ok := sm.layer.cell(id); ok {
			_ = enc.AppendObject(lockedRecord{cell})
		}
		return true
	})
	return nil
}

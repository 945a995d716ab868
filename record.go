package spanline

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Record is an insertion-ordered attribute document. It is the storage behind
// both span attributes and per-event fields, and it is the bridge between the
// two value protocols in play: it implements zapcore.ObjectEncoder so that
// typed fields can be recorded into it one at a time, and
// zapcore.ObjectMarshaler so that the accumulated document can be serialized
// with the keys in the order they were first inserted.
//
// Re-recording an existing key overwrites the value but keeps the key's
// original position. Span records always start with "target" and "name".
//
// Record is not safe for concurrent use; callers that share one record across
// goroutines must serialize access externally.
type Record struct {
	kv    []recordEntry
	index map[string]int

	// cur is the innermost open namespace, nil when writing at the top level.
	cur *Record
}

type recordEntry struct {
	key   string
	value any
}

// binary marks a value stored via AddBinary so it round-trips as base64
// rather than as a UTF-8 string.
type binary []byte

var (
	_ zapcore.ObjectEncoder   = (*Record)(nil)
	_ zapcore.ObjectMarshaler = (*Record)(nil)
)

// NewRecord creates a span record. The target and name entries are inserted
// before any user attribute and therefore always serialize first.
func NewRecord(target, name string) *Record {
	r := &Record{}
	r.set("target", target)
	r.set("name", name)
	return r
}

// newScratchRecord creates an empty record for event fields, which carry no
// target/name metadata of their own.
func newScratchRecord() *Record {
	return &Record{}
}

// Apply records every field into the document. zap's Field.AddTo performs the
// per-type dispatch onto the ObjectEncoder methods below.
func (r *Record) Apply(fields ...zapcore.Field) {
	for _, f := range fields {
		f.AddTo(r)
	}
}

// Len returns the number of top-level entries.
func (r *Record) Len() int { return len(r.kv) }

// Keys returns the top-level keys in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.kv))
	for i, e := range r.kv {
		keys[i] = e.key
	}
	return keys
}

// Value returns the stored value for key and whether it is present.
// Nested documents are returned as *Record.
func (r *Record) Value(key string) (any, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.kv[i].value, true
}

func (r *Record) set(key string, value any) {
	if i, ok := r.index[key]; ok {
		r.kv[i].value = value
		return
	}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	r.index[key] = len(r.kv)
	r.kv = append(r.kv, recordEntry{key: key, value: value})
}

// writeTarget returns the record that new entries should land in: the record
// itself, or the innermost open namespace.
func (r *Record) writeTarget() *Record {
	if r.cur != nil {
		return r.cur
	}
	return r
}

// --- zapcore.ObjectEncoder ---

func (r *Record) AddBool(key string, value bool)       { r.writeTarget().set(key, value) }
func (r *Record) AddInt64(key string, value int64)     { r.writeTarget().set(key, value) }
func (r *Record) AddUint64(key string, value uint64)   { r.writeTarget().set(key, value) }
func (r *Record) AddFloat64(key string, value float64) { r.writeTarget().set(key, value) }

func (r *Record) AddInt(key string, value int)         { r.AddInt64(key, int64(value)) }
func (r *Record) AddInt32(key string, value int32)     { r.AddInt64(key, int64(value)) }
func (r *Record) AddInt16(key string, value int16)     { r.AddInt64(key, int64(value)) }
func (r *Record) AddInt8(key string, value int8)       { r.AddInt64(key, int64(value)) }
func (r *Record) AddUint(key string, value uint)       { r.AddUint64(key, uint64(value)) }
func (r *Record) AddUint32(key string, value uint32)   { r.AddUint64(key, uint64(value)) }
func (r *Record) AddUint16(key string, value uint16)   { r.AddUint64(key, uint64(value)) }
func (r *Record) AddUint8(key string, value uint8)     { r.AddUint64(key, uint64(value)) }
func (r *Record) AddUintptr(key string, value uintptr) { r.AddUint64(key, uint64(value)) }
func (r *Record) AddFloat32(key string, value float32) { r.AddFloat64(key, float64(value)) }

func (r *Record) AddComplex128(key string, value complex128) { r.writeTarget().set(key, value) }
func (r *Record) AddComplex64(key string, value complex64) {
	r.AddComplex128(key, complex128(value))
}

func (r *Record) AddDuration(key string, value time.Duration) { r.writeTarget().set(key, value) }
func (r *Record) AddTime(key string, value time.Time)         { r.writeTarget().set(key, value) }

// AddString records a string, honoring the embedded-JSON sentinel: a value of
// the form JSONStringPrefix+payload is replaced by the parsed payload when the
// payload is valid JSON, and stored verbatim otherwise.
func (r *Record) AddString(key, value string) {
	if payload, ok := strings.CutPrefix(value, JSONStringPrefix); ok {
		if r.writeTarget().setEmbeddedJSON(key, payload) {
			return
		}
	}
	r.writeTarget().set(key, value)
}

func (r *Record) AddByteString(key string, value []byte) {
	r.writeTarget().set(key, string(value))
}

func (r *Record) AddBinary(key string, value []byte) {
	b := make(binary, len(value))
	copy(b, value)
	r.writeTarget().set(key, b)
}

// AddReflected records an opaque value as its debug text. Structural detail
// is deliberately not preserved on this path; values with structure should
// arrive through AddObject/AddArray instead.
func (r *Record) AddReflected(key string, value any) error {
	if value == nil {
		r.writeTarget().set(key, nil)
		return nil
	}
	r.writeTarget().set(key, fmt.Sprintf("%+v", value))
	return nil
}

// AddObject captures the marshaler's output eagerly into an owned nested
// record, so span records never retain references to caller values.
func (r *Record) AddObject(key string, m zapcore.ObjectMarshaler) error {
	sub := &Record{}
	err := m.MarshalLogObject(sub)
	r.writeTarget().set(key, sub)
	return err
}

// AddArray captures the marshaler's output eagerly into an owned array.
func (r *Record) AddArray(key string, m zapcore.ArrayMarshaler) error {
	arr := &arrayValue{}
	err := m.MarshalLogArray(arr)
	r.writeTarget().set(key, arr)
	return err
}

// OpenNamespace routes subsequent writes into a nested record under key.
func (r *Record) OpenNamespace(key string) {
	sub := &Record{}
	r.writeTarget().set(key, sub)
	r.cur = sub
}

// --- zapcore.ObjectMarshaler ---

// MarshalLogObject replays the document into enc in insertion order.
func (r *Record) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	var firstErr error
	for _, e := range r.kv {
		if err := marshalValue(enc, e.key, e.value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func marshalValue(enc zapcore.ObjectEncoder, key string, value any) error {
	switch v := value.(type) {
	case nil:
		return enc.AddReflected(key, nil)
	case bool:
		enc.AddBool(key, v)
	case int64:
		enc.AddInt64(key, v)
	case uint64:
		enc.AddUint64(key, v)
	case float64:
		enc.AddFloat64(key, v)
	case string:
		enc.AddString(key, v)
	case complex128:
		enc.AddComplex128(key, v)
	case time.Duration:
		enc.AddDuration(key, v)
	case time.Time:
		enc.AddTime(key, v)
	case binary:
		enc.AddBinary(key, v)
	case *Record:
		return enc.AddObject(key, v)
	case *arrayValue:
		return enc.AddArray(key, v)
	default:
		return enc.AddReflected(key, v)
	}
	return nil
}

// arrayValue is the list counterpart of Record: an owned, ordered sequence
// that implements both zapcore.ArrayEncoder (to be filled) and
// zapcore.ArrayMarshaler (to be replayed).
type arrayValue struct {
	elems []any
}

var (
	_ zapcore.ArrayEncoder   = (*arrayValue)(nil)
	_ zapcore.ArrayMarshaler = (*arrayValue)(nil)
)

func (a *arrayValue) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	var firstErr error
	for _, v := range a.elems {
		if err := appendValue(enc, v); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func appendValue(enc zapcore.ArrayEncoder, value any) error {
	switch v := value.(type) {
	case nil:
		return enc.AppendReflected(nil)
	case bool:
		enc.AppendBool(v)
	case int64:
		enc.AppendInt64(v)
	case uint64:
		enc.AppendUint64(v)
	case float64:
		enc.AppendFloat64(v)
	case string:
		enc.AppendString(v)
	case complex128:
		enc.AppendComplex128(v)
	case time.Duration:
		enc.AppendDuration(v)
	case time.Time:
		enc.AppendTime(v)
	case *Record:
		return enc.AppendObject(v)
	case *arrayValue:
		return enc.AppendArray(v)
	default:
		return enc.AppendReflected(v)
	}
	return nil
}

// --- zapcore.ArrayEncoder ---

func (a *arrayValue) AppendBool(v bool)             { a.elems = append(a.elems, v) }
func (a *arrayValue) AppendInt64(v int64)           { a.elems = append(a.elems, v) }
func (a *arrayValue) AppendUint64(v uint64)         { a.elems = append(a.elems, v) }
func (a *arrayValue) AppendFloat64(v float64)       { a.elems = append(a.elems, v) }
func (a *arrayValue) AppendString(v string)         { a.elems = append(a.elems, v) }
func (a *arrayValue) AppendComplex128(v complex128) { a.elems = append(a.elems, v) }
func (a *arrayValue) AppendDuration(v time.Duration) {
	a.elems = append(a.elems, v)
}
func (a *arrayValue) AppendTime(v time.Time) { a.elems = append(a.elems, v) }

func (a *arrayValue) AppendInt(v int)         { a.AppendInt64(int64(v)) }
func (a *arrayValue) AppendInt32(v int32)     { a.AppendInt64(int64(v)) }
func (a *arrayValue) AppendInt16(v int16)     { a.AppendInt64(int64(v)) }
func (a *arrayValue) AppendInt8(v int8)       { a.AppendInt64(int64(v)) }
func (a *arrayValue) AppendUint(v uint)       { a.AppendUint64(uint64(v)) }
func (a *arrayValue) AppendUint32(v uint32)   { a.AppendUint64(uint64(v)) }
func (a *arrayValue) AppendUint16(v uint16)   { a.AppendUint64(uint64(v)) }
func (a *arrayValue) AppendUint8(v uint8)     { a.AppendUint64(uint64(v)) }
func (a *arrayValue) AppendUintptr(v uintptr) { a.AppendUint64(uint64(v)) }
func (a *arrayValue) AppendFloat32(v float32) { a.AppendFloat64(float64(v)) }
func (a *arrayValue) AppendComplex64(v complex64) {
	a.AppendComplex128(complex128(v))
}
func (a *arrayValue) AppendByteString(v []byte) { a.AppendString(string(v)) }

func (a *arrayValue) AppendObject(m zapcore.ObjectMarshaler) error {
	sub := &Record{}
	err := m.MarshalLogObject(sub)
	a.elems = append(a.elems, sub)
	return err
}

func (a *arrayValue) AppendArray(m zapcore.ArrayMarshaler) error {
	sub := &arrayValue{}
	err := m.MarshalLogArray(sub)
	a.elems = append(a.elems, sub)
	return err
}

func (a *arrayValue) AppendReflected(value any) error {
	if value == nil {
		a.elems = append(a.elems, nil)
		return nil
	}
	a.elems = append(a.elems, fmt.Sprintf("%+v", value))
	return nil
}

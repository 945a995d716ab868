package spanline

import (
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// JSONStringPrefix is the sentinel marking a string field whose remainder is
// a pre-serialized JSON document. The capture layer strips the prefix and
// records the parsed document in place of the string; if the remainder is not
// valid JSON the whole string, prefix included, is recorded verbatim.
//
// This is an out-of-band channel for producers that can only emit strings.
const JSONStringPrefix = "!custom_layer_tracing_json!"

// jsonParsers is shared by all records; fastjson parsers are cheap to pool
// and parsed values are copied into the record before the parser is reused.
var jsonParsers fastjson.ParserPool

// setEmbeddedJSON parses payload and stores the result under key.
// Returns false if payload is not valid JSON, leaving the record untouched.
func (r *Record) setEmbeddedJSON(key, payload string) bool {
	p := jsonParsers.Get()
	defer jsonParsers.Put(p)
	v, err := p.Parse(payload)
	if err != nil {
		return false
	}
	addJSONValue(r, key, v)
	return true
}

// addRawString stores a string bypassing the sentinel check, so strings
// inside parsed documents are never reinterpreted.
func (r *Record) addRawString(key, value string) {
	r.writeTarget().set(key, value)
}

// JSON adapts a parsed JSON value into a recordable field. Arrays and objects
// keep their document order; numbers map to the narrowest lossless kind
// (uint64, then int64, then float64); encodings representable as none of
// those degrade to null rather than failing.
//
// The adapter copies v into the record when the field is applied, so v may be
// released (or its parser reused) afterwards.
func JSON(key string, v *fastjson.Value) zap.Field {
	if v == nil {
		return zap.Reflect(key, nil)
	}
	switch v.Type() {
	case fastjson.TypeNull:
		return zap.Reflect(key, nil)
	case fastjson.TypeTrue, fastjson.TypeFalse:
		b, _ := v.Bool()
		return zap.Bool(key, b)
	case fastjson.TypeNumber:
		if u, err := v.Uint64(); err == nil {
			return zap.Uint64(key, u)
		}
		if i, err := v.Int64(); err == nil {
			return zap.Int64(key, i)
		}
		if f, err := v.Float64(); err == nil {
			return zap.Float64(key, f)
		}
		return zap.Reflect(key, nil)
	case fastjson.TypeString:
		sb, _ := v.StringBytes()
		return zap.String(key, string(sb))
	case fastjson.TypeArray:
		elems, _ := v.Array()
		return zap.Array(key, jsonArray(elems))
	case fastjson.TypeObject:
		obj, _ := v.Object()
		return zap.Object(key, jsonObject{obj})
	default:
		return zap.Reflect(key, nil)
	}
}

// addJSONValue records one parsed value under key, recursing through arrays
// and objects in document order.
func addJSONValue(enc zapcore.ObjectEncoder, key string, v *fastjson.Value) {
	switch v.Type() {
	case fastjson.TypeNull:
		_ = enc.AddReflected(key, nil)
	case fastjson.TypeTrue, fastjson.TypeFalse:
		b, _ := v.Bool()
		enc.AddBool(key, b)
	case fastjson.TypeNumber:
		if u, err := v.Uint64(); err == nil {
			enc.AddUint64(key, u)
		} else if i, err := v.Int64(); err == nil {
			enc.AddInt64(key, i)
		} else if f, err := v.Float64(); err == nil {
			enc.AddFloat64(key, f)
		} else {
			_ = enc.AddReflected(key, nil)
		}
	case fastjson.TypeString:
		sb, _ := v.StringBytes()
		if r, ok := enc.(*Record); ok {
			r.addRawString(key, string(sb))
		} else {
			enc.AddString(key, string(sb))
		}
	case fastjson.TypeArray:
		elems, _ := v.Array()
		_ = enc.AddArray(key, jsonArray(elems))
	case fastjson.TypeObject:
		obj, _ := v.Object()
		_ = enc.AddObject(key, jsonObject{obj})
	}
}

// appendJSONValue is the array-element counterpart of addJSONValue.
func appendJSONValue(enc zapcore.ArrayEncoder, v *fastjson.Value) {
	switch v.Type() {
	case fastjson.TypeNull:
		_ = enc.AppendReflected(nil)
	case fastjson.TypeTrue, fastjson.TypeFalse:
		b, _ := v.Bool()
		enc.AppendBool(b)
	case fastjson.TypeNumber:
		if u, err := v.Uint64(); err == nil {
			enc.AppendUint64(u)
		} else if i, err := v.Int64(); err == nil {
			enc.AppendInt64(i)
		} else if f, err := v.Float64(); err == nil {
			enc.AppendFloat64(f)
		} else {
			_ = enc.AppendReflected(nil)
		}
	case fastjson.TypeString:
		sb, _ := v.StringBytes()
		enc.AppendString(string(sb))
	case fastjson.TypeArray:
		elems, _ := v.Array()
		_ = enc.AppendArray(jsonArray(elems))
	case fastjson.TypeObject:
		obj, _ := v.Object()
		_ = enc.AppendObject(jsonObject{obj})
	}
}

// jsonObject exposes a fastjson object through the ordered visitor protocol.
// fastjson's Object.Visit walks keys in document order.
type jsonObject struct {
	obj *fastjson.Object
}

func (o jsonObject) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if o.obj == nil {
		return nil
	}
	o.obj.Visit(func(key []byte, v *fastjson.Value) {
		addJSONValue(enc, string(key), v)
	})
	return nil
}

// jsonArray exposes a fastjson array through the ordered visitor protocol.
type jsonArray []*fastjson.Value

func (a jsonArray) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, v := range a {
		appendJSONValue(enc, v)
	}
	return nil
}

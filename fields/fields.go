// Package fields provides request- and instrumentation-oriented field
// helpers with consistent naming.
//
// Usage:
//
//	import "github.com/zenlab/spanline/fields"
//
//	logger.Info(ctx, "request handled",
//	    fields.StatusCode(200),
//	    fields.LatencyMs(12.5),
//	)
package fields

import (
	"time"

	"go.uber.org/zap"
)

// --- Request Fields ---

// RequestID creates a request ID field.
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// Method creates an HTTP method field.
func Method(method string) zap.Field {
	return zap.String("http_method", method)
}

// Path creates a URL path field.
func Path(path string) zap.Field {
	return zap.String("http_path", path)
}

// StatusCode creates an HTTP status code field.
func StatusCode(code int) zap.Field {
	return zap.Int("http_status", code)
}

// RemoteAddr creates a remote address field.
func RemoteAddr(addr string) zap.Field {
	return zap.String("remote_addr", addr)
}

// --- Timing Fields ---

// LatencyMs creates a latency field in milliseconds.
func LatencyMs(ms float64) zap.Field {
	return zap.Float64("latency_ms", ms)
}

// Elapsed creates a latency field from a duration, in milliseconds.
func Elapsed(d time.Duration) zap.Field {
	return zap.Float64("latency_ms", float64(d)/float64(time.Millisecond))
}

// --- Component Fields ---

// Component creates a component name field.
func Component(name string) zap.Field {
	return zap.String("component", name)
}

// Operation creates an operation name field.
func Operation(op string) zap.Field {
	return zap.String("operation", op)
}

// Attempt creates a retry attempt field.
func Attempt(n int) zap.Field {
	return zap.Int("attempt", n)
}

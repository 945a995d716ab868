// Package spanhttp provides HTTP server instrumentation on top of spanline
// spans.
//
// The middleware opens one span per incoming request and records outcome
// attributes when the handler returns:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api", handler)
//	instrumented := spanhttp.Handler(mux, logger.Named("http"))
//	http.ListenAndServe(":8080", instrumented)
//
// Handlers reach the request span through the request context, so any event
// they emit carries the request's attributes automatically.
package spanhttp

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenlab/spanline"
)

// Handler wraps an http.Handler so that every request runs inside a span
// named after the configured operation. The span records:
//   - http_method, http_path, remote_addr and a generated request_id at start
//   - http_status and latency_ms on completion
func Handler(handler http.Handler, logger *spanline.Logger, opts ...Option) http.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(o)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o.filter != nil && !o.filter(r) {
			handler.ServeHTTP(w, r)
			return
		}

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := spanline.WithRequestID(r.Context(), requestID)
		ctx, span := logger.Start(ctx, o.operation,
			zap.String("http_method", r.Method),
			zap.String("http_path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("request_id", requestID),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()
		handler.ServeHTTP(sw, r.WithContext(ctx))

		span.Record(
			zap.Int("http_status", sw.status()),
			zap.Float64("latency_ms", float64(time.Since(start))/float64(time.Millisecond)),
		)
		logger.Info(ctx, "request handled")
	})
}

// statusWriter remembers the response code; WriteHeader may never be called,
// in which case net/http sent 200.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}

// --- Options ---

type options struct {
	operation string
	filter    func(*http.Request) bool
}

func defaultOptions() *options {
	return &options{operation: "http_request"}
}

// Option configures HTTP instrumentation.
type Option interface {
	apply(*options)
}

type operationOption string

func (op operationOption) apply(o *options) { o.operation = string(op) }

// WithOperation sets the span name for request spans.
// Default: "http_request".
func WithOperation(name string) Option { return operationOption(name) }

type filterOption func(*http.Request) bool

func (f filterOption) apply(o *options) { o.filter = f }

// WithFilter sets a filter function to exclude requests from instrumentation.
// Return true to include the request, false to skip.
//
// Example:
//
//	spanhttp.Handler(mux, logger, spanhttp.WithFilter(func(r *http.Request) bool {
//	    return r.URL.Path != "/health"
//	}))
func WithFilter(filter func(r *http.Request) bool) Option {
	return filterOption(filter)
}

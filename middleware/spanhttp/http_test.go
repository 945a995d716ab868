package spanhttp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenlab/spanline"
)

type memorySink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (m *memorySink) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Write(p)
}

func (m *memorySink) Sync() error { return nil }

func (m *memorySink) lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := strings.TrimRight(m.buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func newTestLogger() (*spanline.Logger, *memorySink) {
	sink := &memorySink{}
	return spanline.NewWithLayers("http", spanline.NewJSONLayer(sink)), sink
}

type envelope struct {
	Target string         `json:"target"`
	Fields map[string]any `json:"fields"`
	Span   map[string]any `json:"span"`
}

func TestHandler_RequestSpan(t *testing.T) {
	logger, sink := newTestLogger()

	handler := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), logger)

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	lines := sink.lines()
	require.Len(t, lines, 1)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &env))
	require.NotNil(t, env.Span)
	assert.Equal(t, "http_request", env.Span["name"])
	assert.Equal(t, http.MethodGet, env.Span["http_method"])
	assert.Equal(t, "/orders/42", env.Span["http_path"])
	assert.Equal(t, float64(http.StatusTeapot), env.Span["http_status"])
	assert.NotEmpty(t, env.Span["request_id"])
	assert.Contains(t, env.Span, "latency_ms")
}

func TestHandler_PropagatesRequestID(t *testing.T) {
	logger, sink := newTestLogger()

	var seen string
	handler := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = spanline.RequestIDFromContext(r.Context())
	}), logger)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-abc", seen)

	lines := sink.lines()
	require.Len(t, lines, 1)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &env))
	assert.Equal(t, "req-abc", env.Span["request_id"])
}

func TestHandler_EventsInsideRequestCarrySpan(t *testing.T) {
	logger, sink := newTestLogger()

	handler := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.Context(), "inside handler")
	}), logger)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	lines := sink.lines()
	require.Len(t, lines, 2)

	var inside envelope
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &inside))
	assert.Equal(t, "inside handler", inside.Fields["message"])
	require.NotNil(t, inside.Span)
	assert.Equal(t, "/x", inside.Span["http_path"])
}

func TestHandler_FilterSkipsInstrumentation(t *testing.T) {
	logger, sink := newTestLogger()

	handler := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), logger, WithFilter(func(r *http.Request) bool {
		return r.URL.Path != "/health"
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, sink.lines())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Len(t, sink.lines(), 1)
}

func TestHandler_CustomOperation(t *testing.T) {
	logger, sink := newTestLogger()

	handler := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		logger, WithOperation("api_call"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := sink.lines()
	require.Len(t, lines, 1)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &env))
	assert.Equal(t, "api_call", env.Span["name"])
}

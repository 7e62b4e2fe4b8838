package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/mcp", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusOK) // ignored, first status wins
	})
	return r
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := newRouter()

	tests := []struct {
		method, path string
		label        string
		status       string
	}{
		{"POST", "/mcp", "/mcp", "200"},
		{"GET", "/health", "/health", "503"},
		{"GET", "/nowhere", "unknown", "404"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tt.method, tt.label, tt.status))

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			r.ServeHTTP(httptest.NewRecorder(), req)

			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tt.method, tt.label, tt.status))
			if after-before != 1 {
				t.Errorf("requests_total{%s,%s,%s} delta = %v, want 1", tt.method, tt.label, tt.status, after-before)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
}

func TestRegisterMetrics_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
	RegisterToolMetrics()
	RegisterToolMetrics()
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
}

func TestToolMetrics(t *testing.T) {
	ToolCallsTotal.WithLabelValues("kdbai_query_data", "success").Inc()
	if v := testutil.ToFloat64(ToolCallsTotal.WithLabelValues("kdbai_query_data", "success")); v < 1 {
		t.Errorf("tool_calls_total = %v", v)
	}
	ToolRecordsReturned.WithLabelValues("kdbai_query_data").Observe(3)
	if testutil.CollectAndCount(ToolRecordsReturned) == 0 {
		t.Error("expected tool_records_returned observations")
	}
}

func TestMiddleware_PreservesFlusher(t *testing.T) {
	var flushable bool
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, flushable = w.(http.Flusher)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/mcp", http.NoBody))
	if !flushable {
		t.Error("wrapped writer must implement http.Flusher for event streams")
	}
}

// Package chi serves the HTTP surface: the streamable MCP endpoint, health
// and Prometheus metrics.
package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/metrics"
	healthuc "github.com/kailas-cloud/kdbai-mcp/internal/usecase/health"
)

// Routes served by the HTTP transport.
const (
	PathMCP     = "/mcp"
	PathHealth  = "/health"
	PathMetrics = "/metrics"
)

// Error codes of JSON error bodies.
const (
	CodeUnauthorized  = "unauthorized"
	CodeInternalError = "internal_error"
)

// HealthChecker reports aggregated component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// ErrorResponse is the JSON body of transport-level errors.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server wires the MCP handler, health and metrics behind chi middleware.
type Server struct {
	mcp     http.Handler
	health  HealthChecker
	apiKeys []string
	logger  *zap.Logger
}

// NewServer creates the HTTP transport. apiKeys enables bearer auth on /mcp.
func NewServer(mcpHandler http.Handler, health HealthChecker, apiKeys []string, logger *zap.Logger) *Server {
	return &Server{
		mcp:     mcpHandler,
		health:  health,
		apiKeys: apiKeys,
		logger:  logger,
	}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.Get(PathHealth, s.HealthCheck)
	r.Method(http.MethodGet, PathMetrics, promhttp.Handler())
	r.Handle(PathMCP, s.mcp)
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

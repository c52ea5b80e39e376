// Package api serves the translator and the TLE catalog over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/auth"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/config"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/health"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/httputil"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/metrics"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/propagation"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
)

// Deps are the long-lived collaborators of the HTTP surface. Loader may be
// nil when catalog fetching is disabled.
type Deps struct {
	Store   *tle.Store
	Catalog *propagation.Catalog
	Loader  *tle.Loader
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(cfg config.Config, logger *slog.Logger, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           NewHandler(cfg, logger, deps),
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler builds the routed and instrumented handler tree.
func NewHandler(cfg config.Config, logger *slog.Logger, deps Deps) http.Handler {
	h := &handlers{
		store:      deps.Store,
		catalog:    deps.Catalog,
		loader:     deps.Loader,
		maxSamples: cfg.HTTP.MaxSamples,
		workers:    cfg.Workers,
		logger:     logger,
		now:        time.Now,
	}
	limit := httputil.Limit(httputil.NewLimiter(cfg.HTTP.MaxConcurrentPerIP, 0), cfg.HTTP.TrustProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool { return deps.Store.Get() != nil }))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("POST /api/v1/propagate", limit(http.HandlerFunc(h.propagate)))
	mux.HandleFunc("POST /api/v1/keplerian", h.keplerian)
	mux.Handle("GET /api/v1/catalog/{catalog_number}/propagate", limit(http.HandlerFunc(h.catalogPropagate)))
	mux.HandleFunc("GET /api/v1/catalog/{catalog_number}/keplerian", h.catalogKeplerian)
	mux.HandleFunc("GET /api/v1/catalog/metadata", h.metadata)
	mux.HandleFunc("POST /api/v1/catalog/fetch", h.catalogFetch)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	handler = loggingMiddleware(logger, cfg.HTTP.TrustProxy)(handler)
	handler = metrics.Middleware(handler)
	return handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

// requestIDHeader is echoed back, or generated when the client omits it.
const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
				"request_id", requestID,
			)
		})
	}
}

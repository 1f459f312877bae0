package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-explorer-service/internal/view"
)

// Options configures the API middleware.
type Options struct {
	CORSAllowedOrigins []string
	RateLimitRPS       float64 // 0 disables rate limiting
	RateLimitBurst     int
}

// Server exposes health, readiness, metrics and the explorer API.
type Server struct {
	httpServer *http.Server
	controller atomic.Pointer[view.Controller]
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes. API routes answer 503 until SetController is called.
func NewServer(addr string, ready sharedobs.ReadinessChecker, opts Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/layout", s.withController(s.handleLayout))
	api.HandleFunc("GET /api/v1/callbacks", handleListCallbacks)
	api.HandleFunc("POST /api/v1/callbacks/{name}", s.withController(s.handleCallback))
	api.HandleFunc("GET /api/v1/geo/provinces.geojson", s.withController(handleProvincesGeoJSON))
	api.HandleFunc("GET /api/v1/geo/faults.geojson", s.withController(handleFaultsGeoJSON))
	api.HandleFunc("GET /api/v1/export/counts.xlsx", s.withController(s.handleCountsXLSX))
	api.HandleFunc("GET /api/v1/export/trends.png", s.withController(s.handleTrendsPNG))

	mux.Handle("/api/", corsMiddleware(opts.CORSAllowedOrigins)(rateLimitMiddleware(opts.RateLimitRPS, opts.RateLimitBurst)(api)))

	return s
}

// SetController swaps in the controller serving the current snapshot.
func (s *Server) SetController(c *view.Controller) {
	s.controller.Store(c)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type controllerHandler func(w http.ResponseWriter, r *http.Request, c *view.Controller)

func (s *Server) withController(h controllerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.controller.Load()
		if c == nil {
			writeError(w, http.StatusServiceUnavailable, "snapshot has not been prepared yet")
			return
		}
		h(w, r, c)
	}
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request, c *view.Controller) {
	sharedobs.WriteJSON(w, http.StatusOK, c.Layout())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}

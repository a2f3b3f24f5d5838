package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
	"github.com/couchcryptid/alert-risk-dashboard/internal/observability"
)

// Dashboard is the application surface the HTTP adapter serves.
type Dashboard interface {
	Cities(ctx context.Context) ([]string, error)
	DefaultQuery(city string) domain.Query
	Compute(ctx context.Context, q domain.Query) (domain.Outputs, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard page, its JSON API, and the health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with all routes mounted.
func NewServer(addr string, dash Dashboard, logger *slog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		dashboard: dash,
		logger:    logger,
		metrics:   metrics,
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(s.dashboard))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.handlePage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/cities", s.handleCities)
		r.Get("/dashboard", s.handleDashboard)
	})

	return r
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

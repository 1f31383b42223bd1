// Package httpapi is the HTTP glue: chi routing, method dispatch, and
// the middleware chain serving the dandiset/Zarr virtual hierarchy
// over a single catch-all route.
package httpapi

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dandidav/gateway/internal/config"
	"github.com/dandidav/gateway/internal/metrics"
	"github.com/dandidav/gateway/internal/resolver"
	"github.com/dandidav/gateway/internal/respond"
)

//go:embed static/styles.css
var staticAssets embed.FS

// Server is the gateway's HTTP server, built once at startup and run
// until the process is asked to shut down.
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	resolver  *resolver.Resolver
	responder *respond.Responder
	metrics   *metrics.Metrics
	registry  *prometheus.Registry

	router     chi.Router
	httpServer *http.Server
}

// NewServer wires the router and middleware chain from its collaborators,
// all supplied by the caller rather than constructed internally.
func NewServer(cfg *config.Config, logger *zap.Logger, res *resolver.Resolver, responder *respond.Responder, reg *prometheus.Registry, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		resolver:  res,
		responder: responder,
		metrics:   m,
		registry:  reg,
		router:    chi.NewRouter(),
	}

	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.accessLogMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/.static/styles.css", s.handleStaticCSS)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// Every WebDAV-enabled path is handled by one catch-all dispatcher,
	// following virtpath.Parse's own grammar rather than chi route
	// parameters: the hierarchy is too irregular (optional releases/
	// segment, Zarr-internal remainders) for a fixed pattern set.
	s.router.HandleFunc("/*", s.handleDAV)
	s.router.HandleFunc("/", s.handleDAV)
}

func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	data, err := staticAssets.ReadFile("static/styles.css")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	http.ServeContent(w, r, "styles.css", time.Time{}, bytes.NewReader(data))
}

// Start begins serving, blocking until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.logger.Info("starting dandidav gateway", zap.String("addr", s.cfg.Addr()))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the underlying chi.Router for tests.
func (s *Server) Router() chi.Router { return s.router }

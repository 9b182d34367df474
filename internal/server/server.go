// Package server wires the HTTP router and runs the listener.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"roulette-table/internal/config"
	"roulette-table/internal/handler"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthTimeout bounds the dependency checks behind /healthz.
const healthTimeout = 2 * time.Second

// Server is the HTTP front of the roulette tables.
type Server struct {
	cfg    config.ServerConfig
	router chi.Router
	http   *http.Server
}

// New builds the router. rounds and health may be nil when no database is
// in use; the round history route is then not mounted.
func New(cfg config.ServerConfig, tables *handler.TableHandler, rounds *handler.RoundsHandler, health HealthChecker) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(log.Logger))
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         60 * 15,
	}))

	r.Get("/healthz", healthHandler(health))
	r.Get("/layout", tables.Layout)
	r.Get("/ws", tables.ServeWS)
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", tables.List)
		r.Get("/{tableID}", tables.Get)
		if rounds != nil {
			r.Get("/{tableID}/rounds", rounds.List)
		}
	})

	return &Server{
		cfg:    cfg,
		router: r,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Stop is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down, waiting up to the configured timeout for
// in-flight requests. Hijacked websocket connections are not waited on.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

func healthHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			resp.Database = "ok"
			if err := health.HealthCheck(ctx); err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Msg("Database health check failed")
				resp.Status, resp.Database = "degraded", "unreachable"
				render.Status(r, http.StatusServiceUnavailable)
			}
		}
		render.JSON(w, r, resp)
	}
}

// Package server provides the HTTP surface over the attribution calculators.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/attribution/internal/config"
)

// Server is the HTTP server.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	cfg      *config.Config
	handlers *Handlers
}

// New creates a new HTTP server.
func New(cfg *config.Config, handlers *Handlers, log zerolog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      log.With().Str("component", "server").Logger(),
		cfg:      cfg,
		handlers: handlers,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handlers.HandleHealth)

		r.Route("/attribution", func(r chi.Router) {
			r.Post("/returns", s.handlers.HandleReturns)
			r.Post("/risk", s.handlers.HandleRisk)
			r.Post("/factors", s.handlers.HandleFactors)
			r.Post("/multi-period", s.handlers.HandleMultiPeriod)
		})

		r.Route("/pnl", func(r chi.Router) {
			r.Post("/analyze", s.handlers.HandlePnL)
		})
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alejandrodnm/tezfolio/internal/adapters/notify"
	"github.com/alejandrodnm/tezfolio/internal/application/portfolio"
)

// Config holds server configuration.
type Config struct {
	Listen     string
	Controller *portfolio.Controller
	Inbox      *notify.Inbox
	// AllowedOrigins for CORS. Empty means any origin.
	AllowedOrigins []string
}

// Server exposes the portfolio controller over a local HTTP API.
type Server struct {
	router *chi.Mux
	server *http.Server
	ctrl   *portfolio.Controller
	inbox  *notify.Inbox
}

// New creates the HTTP server. It does not start listening.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		ctrl:   cfg.Controller,
		inbox:  cfg.Inbox,
	}
	if s.inbox == nil {
		s.inbox = notify.NewInbox(0)
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Contract calls block until confirmed; keep room for the wallet
		// confirmation timeout.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/pools", s.handlePools)

		r.Post("/session", s.handleConnect)
		r.Delete("/session", s.handleDisconnect)
		r.Post("/catalog/refresh", s.handleRefreshCatalog)

		r.Route("/allocation", func(r chi.Router) {
			r.Post("/", s.handleAddPool)
			r.Delete("/", s.handleReset)
			r.Delete("/{pool}", s.handleRemovePool)
			r.Put("/{pool}/weight", s.handleSetWeight)
		})

		r.Post("/emulate", s.handleEmulate)
		r.Post("/variants", s.handleVariants)
		r.Post("/variants/{index}/select", s.handleSelectVariant)

		r.Route("/portfolio", func(r chi.Router) {
			r.Post("/", s.handleOpen)
			r.Post("/rebalance", s.handleRebalance)
			r.Delete("/", s.handleClose)
		})

		r.Get("/notices", s.handleNotices)
		r.Delete("/notices/{id}", s.handleDismissNotice)
		r.Get("/operations", s.handleOperations)
	})
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	slog.Info("starting HTTP server", "listen", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

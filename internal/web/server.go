// Package web provides the server-rendered admin pages: dashboard,
// message/response listings, the user rollup, analytics, and the session
// login gate in front of them.
package web

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/ilikepancakes/gorkdb-admin/internal/config"
	"github.com/ilikepancakes/gorkdb-admin/internal/database"
)

// Server serves the admin UI over a single HTTP listener.
type Server struct {
	cfg       *config.Config
	store     database.Store
	sessions  *Sessions
	templates map[string]*template.Template
	logger    *slog.Logger
	http      *http.Server
}

// NewServer builds the router, parses the embedded templates, and prepares
// the HTTP server. It does not start listening; call Run for that.
func NewServer(cfg *config.Config, store database.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")

	key := []byte(cfg.Auth.SessionKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
		logger.Warn("auth.session_key not configured, sessions will not survive restarts")
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		sessions:  NewSessions(key, logger),
		templates: templates,
		logger:    logger,
	}

	s.http = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// Handler exposes the routed handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)

	protected := r.PathPrefix("/").Subrouter()
	protected.Use(s.requireAuth)
	protected.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	protected.HandleFunc("/messages", s.handleMessages).Methods(http.MethodGet, http.MethodPost)
	protected.HandleFunc("/responses", s.handleResponses).Methods(http.MethodGet, http.MethodPost)
	protected.HandleFunc("/users", s.handleUsers).Methods(http.MethodGet, http.MethodPost)
	protected.HandleFunc("/analytics", s.handleAnalytics).Methods(http.MethodGet)

	return r
}

// Run starts the listener and blocks until the context is cancelled or the
// server fails. Shutdown is graceful, bounded by server.shutdown_timeout.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

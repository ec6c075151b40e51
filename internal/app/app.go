// Package app wires the admin server components together and manages
// their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/ilikepancakes/gorkdb-admin/internal/config"
	"github.com/ilikepancakes/gorkdb-admin/internal/database"
	"github.com/ilikepancakes/gorkdb-admin/internal/logger"
	"github.com/ilikepancakes/gorkdb-admin/internal/web"
)

// App holds the assembled application components.
type App struct {
	cfg    *config.Config
	db     *sqlx.DB
	server *web.Server
	log    *slog.Logger
}

// New loads configuration from the given path, configures logging, opens
// the database (applying migrations), and builds the web server.
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	log.Info("configuration loaded", "db_path", cfg.Database.Path, "addr", cfg.Server.Addr)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := database.NewStore(db, log)

	server, err := web.NewServer(cfg, store, log)
	if err != nil {
		database.CloseDB(db)
		return nil, fmt.Errorf("failed to initialize web server: %w", err)
	}

	return &App{cfg: cfg, db: db, server: server, log: log}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails. The database is closed before returning.
func (a *App) Run(ctx context.Context) error {
	defer database.CloseDB(a.db)

	if err := a.server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.log.Info("admin server stopped")
	return nil
}

// Package main is the entry point for the database admin server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ilikepancakes/gorkdb-admin/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	a, err := app.New(*configPath)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("Server stopped due to error", "error", err)
		return 1
	}

	return 0
}

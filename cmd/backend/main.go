// Package main is the entry point for the backend API service.
//
// The backend runs in the private API tier behind the internal load
// balancer. ECS injects the database connection secret as resolved JSON in
// DATABASE_URL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/api"
	"github.com/tierstack/tierstack/internal/backend"
	"github.com/tierstack/tierstack/internal/logging"
	"github.com/tierstack/tierstack/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := backend.LoadConfig(backend.NewViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewServiceLogger("backend", cfg.Environment, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	m, err := metrics.New("backend")
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// A missing or broken secret keeps the service up; the status endpoint
	// then reports database_connected=false.
	var store backend.Store
	secret, err := backend.ParseDatabaseSecret(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database secret unusable", zap.Error(err))
	} else {
		db, err := backend.Open(secret, cfg.SSLMode, m)
		if err != nil {
			logger.Error("failed to open database", zap.Error(err))
		} else {
			defer func() { _ = db.Close() }()
			store = db
			logger.Info("database configured", zap.Stringer("database", secret))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := backend.NewRouter(ctx, cfg, logger, m, store)
	return api.Serve(ctx, cfg.Addr(), router, logger)
}

// Package main is the entry point for the frontend web service.
//
// The frontend runs in the public web tier behind the internet-facing load
// balancer and forwards /api/status and /api/db-test to the backend named
// by BACKEND_URL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/api"
	"github.com/tierstack/tierstack/internal/logging"
	"github.com/tierstack/tierstack/internal/metrics"
	"github.com/tierstack/tierstack/internal/proxy"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := proxy.LoadConfig(proxy.NewViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewServiceLogger("frontend", cfg.Environment, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	m, err := metrics.New("frontend")
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.BackendURL == "" {
		logger.Warn("BACKEND_URL is not set, proxied endpoints will fail")
	}
	logger.Info("starting frontend",
		zap.String("backend_url", cfg.BackendURL),
		zap.Duration("status_timeout", cfg.StatusTimeout),
		zap.Duration("db_test_timeout", cfg.DBTestTimeout),
	)

	router := proxy.NewRouter(ctx, cfg, logger, m, nil)
	return api.Serve(ctx, cfg.Addr(), router, logger)
}

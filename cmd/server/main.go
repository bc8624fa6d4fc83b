// Package main runs the leaderboard service:
// - HTTP API (gin) with bearer authentication, /healthz and /metrics
// - Ingestion (continuous): Solana program logs and a Kafka trade topic
// - Scheduler: leaderboard refresh, daily snapshots, reward distribution
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"t2e-leaderboard/internal/api"
	"t2e-leaderboard/internal/app"
	"t2e-leaderboard/internal/config"
	"t2e-leaderboard/internal/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("T2E_CONFIG"), "Path to the YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage regardless of storage.backend")
	migrate := flag.Bool("migrate", false, "Apply database migrations on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *useMemory {
		cfg.Storage.Backend = config.BackendMemory
	}
	if *migrate {
		cfg.Storage.Migrate = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
		closeLog()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	rt, err := app.NewRuntime(cfg, stores, logger)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}

	srv := newServer(cfg, rt, logger)

	checks := make(map[string]api.HealthCheck, len(stores.Checks)+len(rt.Checks))
	for name, check := range stores.Checks {
		checks[name] = api.HealthCheck(check)
	}
	for name, check := range rt.Checks {
		checks[name] = api.HealthCheck(check)
	}
	opts := api.Options{
		Backend: rt.Engine,
		Tokens:  rt.Tokens,
		Checks:  checks,
		Logger:  logger,
	}
	if !cfg.Server.DisableMetrics {
		opts.Metrics = rt.Registry
	}
	router := api.NewRouter(opts)
	router.GET("/status", srv.handleStatus)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-done:
			return
		}

		// Second signal or a stuck shutdown forces exit.
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(cfg.Server.ShutdownTimeout):
			logger.Warn("graceful shutdown timed out, forcing exit", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
			os.Exit(1)
		case <-done:
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("http shutdown", zap.Error(shutdownErr))
	}
	srv.wait()

	if err != nil {
		return err
	}
	return ctx.Err()
}

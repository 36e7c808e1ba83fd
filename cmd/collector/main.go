package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/kalshi-collector/internal/auth"
	"github.com/rickgao/kalshi-collector/internal/config"
	"github.com/rickgao/kalshi-collector/internal/orchestrator"
	"github.com/rickgao/kalshi-collector/internal/version"
)

func main() {
	envPath := flag.String("env", ".env", "path to a .env file (optional)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	logger.Info("starting collector", "version", version.Version, "commit", version.Commit)

	cfg, err := config.Load(*envPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	creds, err := loadCredentials(cfg)
	if err != nil {
		logger.Error("failed to load stream credentials", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	o, err := orchestrator.New(cfg, creds, logger)
	if err != nil {
		logger.Error("failed to construct orchestrator", "error", err)
		os.Exit(1)
	}

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port+1),
		Handler: o.HealthHandler(),
	}
	go func() {
		logger.Info("starting health server", "addr", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("collector running", "metrics_port", cfg.Metrics.Port, "health_addr", healthServer.Addr)

	if err := o.Run(ctx); err != nil {
		logger.Error("orchestrator run exited with error", "error", err)
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	o.Shutdown(shutdownCtx)
	_ = healthServer.Shutdown(shutdownCtx)

	logger.Info("collector stopped")
}

// loadCredentials loads the streaming/side-channel signing key from either a
// PEM file path or inline PEM content, matching the two supported config
// knobs. A process with no configured key runs unauthenticated, which only
// works against endpoints that permit it.
func loadCredentials(cfg *config.Config) (*auth.Credentials, error) {
	if cfg.Stream.PrivateKeyContent != "" {
		return auth.LoadCredentialsFromContent(cfg.Stream.KeyID, cfg.Stream.PrivateKeyContent)
	}
	if cfg.Stream.PrivateKeyPath != "" {
		return auth.LoadCredentials(cfg.Stream.KeyID, cfg.Stream.PrivateKeyPath)
	}
	return nil, nil
}

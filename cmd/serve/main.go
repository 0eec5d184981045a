// Package main provides the dashboard server entry point.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/account-tracker/internal/api"
	"github.com/account-tracker/internal/config"
	"github.com/account-tracker/internal/logging"
	"github.com/account-tracker/internal/render"
	"github.com/account-tracker/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New("info", "json").Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	defer postgres.Close()

	server := api.NewServer(
		&api.ServerConfig{Host: cfg.Server.Host, Port: cfg.Server.Port},
		storage.NewSnapshotRepository(postgres.Pool()),
		render.NewRenderer("Main Account Performance"),
		*logger,
	)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}

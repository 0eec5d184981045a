// Package main provides the render-and-publish entry point, invoked
// independently of the fetch cycle.
//
// Exit codes: 0 = success, 1 = hard failure (nothing to render, storage read
// failure, publish failure).
package main

import (
	"context"
	"os"

	"github.com/account-tracker/internal/config"
	"github.com/account-tracker/internal/logging"
	"github.com/account-tracker/internal/publish"
	"github.com/account-tracker/internal/render"
	"github.com/account-tracker/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New("info", "json").Error().Err(err).Msg("failed to load configuration")
		return 1
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	ctx := logging.WithLogger(context.Background(), logger)

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to Postgres")
		return 1
	}
	defer postgres.Close()

	repo := storage.NewSnapshotRepository(postgres.Pool())
	series, err := repo.All(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read snapshot series")
		return 1
	}

	renderer := render.NewRenderer("Main Account Performance")
	artifact, err := renderer.Render(series)
	if err != nil {
		logger.Error().Err(err).Msg("render failed")
		return 1
	}

	var publisher publish.Publisher
	if cfg.Publish.RepoPath != "" {
		publisher = &publish.GitPublisher{
			RepoPath:     cfg.Publish.RepoPath,
			ArtifactName: cfg.Publish.ArtifactName,
			Branch:       cfg.Publish.Branch,
		}
	} else {
		publisher = &publish.FilePublisher{Path: cfg.Publish.ArtifactName}
	}

	asOf := series[len(series)-1].SnapshotDate
	if err := publisher.Publish(ctx, artifact, asOf); err != nil {
		logger.Error().Err(err).Msg("publish failed")
		return 1
	}

	logger.Info().
		Int("points", len(series)).
		Str("as_of", asOf.Format("2006-01-02")).
		Msg("report published")
	return 0
}

// Package main provides the fetch-and-store entry point, invoked once per
// period by the scheduler.
//
// Exit codes: 0 = full success, 2 = partial success (snapshot written, some
// accounts failed), 1 = hard failure (no data retrieved, durable write
// failure, configuration failure).
package main

import (
	"context"
	"os"

	"github.com/account-tracker/internal/config"
	"github.com/account-tracker/internal/exchange"
	"github.com/account-tracker/internal/logging"
	"github.com/account-tracker/internal/service"
	"github.com/account-tracker/internal/storage"
)

const (
	exitSuccess = 0
	exitHard    = 1
	exitPartial = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New("info", "json").Error().Err(err).Msg("failed to load configuration")
		return exitHard
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	ctx := logging.WithLogger(context.Background(), logger)

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return exitHard
	}

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to Postgres")
		return exitHard
	}
	defer postgres.Close()

	// The cache is advisory; run without it when Redis is unreachable.
	var cache exchange.Cache
	if redisCache, err := storage.NewRedisCache(&cfg.Database.Redis); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
	} else {
		defer func() {
			_ = redisCache.Close()
		}()
		cache = redisCache
	}

	client, err := exchange.NewClient(&exchange.ClientConfig{
		BaseURL:           cfg.Exchange.BaseURL,
		AuthToken:         cfg.Exchange.AuthToken,
		RequestsPerSecond: cfg.Exchange.RequestsPerSecond,
		Timeout:           cfg.Exchange.Timeout,
		Cache:             cache,
		CacheTTL:          cfg.Database.Redis.CacheTTL,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to create exchange client")
		return exitHard
	}

	accountIDs := cfg.Tracker.AccountIDs
	if len(accountIDs) == 0 {
		// No configured list; discover the main account and its
		// sub-accounts from the owner address.
		accountIDs, err = client.AccountsByOwner(ctx, cfg.Exchange.OwnerAddress)
		if err != nil {
			logger.Error().Err(err).Str("owner", cfg.Exchange.OwnerAddress).Msg("account discovery failed")
			return exitHard
		}
		logger.Info().Strs("account_ids", accountIDs).Msg("discovered accounts")
	}

	aggregator := service.NewAggregator(client, cfg.Tracker.MaxConcurrentQueries)
	tracker := service.NewTrackerService(aggregator, storage.NewSnapshotRepository(postgres.Pool()), service.TrackerConfig{
		AccountIDs:           accountIDs,
		BackfillDefaultValue: cfg.Tracker.BackfillDefaultValue,
		BackfillStartDate:    cfg.Tracker.BackfillStartDate,
	})

	report, err := tracker.RunOnce(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		return exitHard
	}

	if report.Partial() {
		for _, failure := range report.Result.Failures {
			logger.Warn().
				Str("account_id", failure.AccountID).
				Str("reason", failure.Reason).
				Msg("account failed during run")
		}
		logger.Warn().
			Str("run_id", report.RunID).
			Int("succeeded", len(report.Result.Accounts)).
			Int("failed", len(report.Result.Failures)).
			Msg("run completed with partial success")
		return exitPartial
	}

	logger.Info().
		Str("run_id", report.RunID).
		Int("accounts", len(report.Result.Accounts)).
		Str("total_value", report.Result.TotalValue.String()).
		Msg("run completed")
	return exitSuccess
}

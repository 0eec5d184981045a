package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/account-tracker/internal/logging"
	"github.com/account-tracker/internal/models"
)

// SnapshotStore is the durable mapping from calendar date to total value.
// The concrete implementation lives in internal/storage; tests substitute an
// in-memory store.
type SnapshotStore interface {
	Upsert(ctx context.Context, date time.Time, value decimal.Decimal) error
	Count(ctx context.Context) (int64, error)
	Backfill(ctx context.Context, dates []time.Time, defaultValue decimal.Decimal) (int, error)
	All(ctx context.Context) ([]models.Snapshot, error)
	Latest(ctx context.Context) (*models.Snapshot, error)
}

// TrackerConfig configures one fetch-and-store cycle.
type TrackerConfig struct {
	AccountIDs []string
	// BackfillDefaultValue seeds dates that predate the first live
	// measurement. Only used when the store is empty at startup.
	BackfillDefaultValue decimal.Decimal
	// BackfillStartDate is the first date to seed; zero disables backfill.
	BackfillStartDate time.Time
	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time
}

// TrackerService runs the fetch-and-store cycle: aggregate live account
// values, persist one snapshot for today.
type TrackerService struct {
	aggregator *Aggregator
	store      SnapshotStore
	cfg        TrackerConfig
}

// NewTrackerService creates a new tracker service.
func NewTrackerService(aggregator *Aggregator, store SnapshotStore, cfg TrackerConfig) *TrackerService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TrackerService{
		aggregator: aggregator,
		store:      store,
		cfg:        cfg,
	}
}

// RunOnce executes one fetch-and-store cycle. A run with partial account
// failures still writes a snapshot; a run with zero successes writes nothing
// and returns ErrNoDataRetrieved. Store write failures propagate as
// DurableWriteError.
func (s *TrackerService) RunOnce(ctx context.Context) (*models.RunReport, error) {
	runID := uuid.NewString()
	logger := logging.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logging.WithLogger(ctx, &logger)

	today := models.Day(s.cfg.Now())

	backfilled, err := s.maybeBackfill(ctx, today)
	if err != nil {
		return nil, err
	}

	result, err := s.aggregator.Aggregate(ctx, s.cfg.AccountIDs, true)
	if err != nil {
		return nil, err
	}

	if err := s.store.Upsert(ctx, today, result.TotalValue); err != nil {
		return nil, err
	}

	logger.Info().
		Str("date", today.Format("2006-01-02")).
		Str("total_value", result.TotalValue.String()).
		Int("accounts", len(result.Accounts)).
		Int("failures", len(result.Failures)).
		Msg("snapshot written")

	return &models.RunReport{
		RunID:        runID,
		Result:       result,
		SnapshotDate: today,
		Backfilled:   backfilled,
	}, nil
}

// maybeBackfill seeds historical dates with the configured default value,
// only when the store is empty and a start date is configured. It fills every
// day from the start date up to, but not including, today.
func (s *TrackerService) maybeBackfill(ctx context.Context, today time.Time) (int, error) {
	if s.cfg.BackfillStartDate.IsZero() {
		return 0, nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check store state: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	var dates []time.Time
	for d := models.Day(s.cfg.BackfillStartDate); d.Before(today); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return 0, nil
	}

	filled, err := s.store.Backfill(ctx, dates, s.cfg.BackfillDefaultValue)
	if err != nil {
		return 0, err
	}

	logging.FromContext(ctx).Info().
		Int("dates", filled).
		Str("default_value", s.cfg.BackfillDefaultValue.String()).
		Msg("seeded empty store with backfill values")

	return filled, nil
}

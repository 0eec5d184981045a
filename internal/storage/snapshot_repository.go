package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	apperrors "github.com/account-tracker/internal/errors"
	"github.com/account-tracker/internal/models"
)

// SnapshotRepository persists daily total-value snapshots. The snapshots
// table, keyed by calendar date, is the entire durable state of the system.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{
		pool: pool,
	}
}

// Upsert writes or overwrites the snapshot for a date. The write is atomic
// and last-write-wins: the table holds at most one value per date.
func (r *SnapshotRepository) Upsert(ctx context.Context, date time.Time, value decimal.Decimal) error {
	query := `
		INSERT INTO snapshots (snapshot_date, total_value)
		VALUES ($1, $2)
		ON CONFLICT (snapshot_date)
		DO UPDATE SET total_value = EXCLUDED.total_value
	`

	if _, err := r.pool.Exec(ctx, query, models.Day(date), value); err != nil {
		return apperrors.NewDurableWriteError("upsert snapshot", err)
	}

	return nil
}

// Count returns the number of distinct dates stored.
func (r *SnapshotRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// Backfill inserts the default value for each date that has no snapshot yet.
// Existing snapshots are left untouched. All inserts happen in one
// transaction. Returns the number of dates filled.
func (r *SnapshotRepository) Backfill(ctx context.Context, dates []time.Time, defaultValue decimal.Decimal) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, apperrors.NewDurableWriteError("begin backfill", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO snapshots (snapshot_date, total_value)
		VALUES ($1, $2)
		ON CONFLICT (snapshot_date) DO NOTHING
	`

	filled := 0
	for _, date := range dates {
		tag, err := tx.Exec(ctx, query, models.Day(date), defaultValue)
		if err != nil {
			return 0, apperrors.NewDurableWriteError("backfill snapshot", err)
		}
		filled += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperrors.NewDurableWriteError("commit backfill", err)
	}

	return filled, nil
}

// All returns every stored snapshot ordered by ascending date.
func (r *SnapshotRepository) All(ctx context.Context) ([]models.Snapshot, error) {
	query := `
		SELECT snapshot_date, total_value
		FROM snapshots
		ORDER BY snapshot_date ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		var s models.Snapshot
		if err := rows.Scan(&s.SnapshotDate, &s.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		s.SnapshotDate = models.Day(s.SnapshotDate)
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return snapshots, nil
}

// Latest returns the most recent snapshot, or nil when the store is empty.
func (r *SnapshotRepository) Latest(ctx context.Context) (*models.Snapshot, error) {
	query := `
		SELECT snapshot_date, total_value
		FROM snapshots
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	var s models.Snapshot
	err := r.pool.QueryRow(ctx, query).Scan(&s.SnapshotDate, &s.TotalValue)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	s.SnapshotDate = models.Day(s.SnapshotDate)
	return &s, nil
}

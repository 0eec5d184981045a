// Package models provides the domain model for the account tracker.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents one open position on an account as reported by the
// exchange. All fields are optional in the wire format; absent values are
// normalized to zero at the aggregator boundary.
type Position struct {
	Market          string          `json:"market"`
	UnrealizedPnl   decimal.Decimal `json:"unrealizedPnl"`
	RealizedPnl     decimal.Decimal `json:"realizedPnl"`
	AllocatedMargin decimal.Decimal `json:"allocatedMargin"`
}

// AccountMetrics holds the computed per-account figures for one aggregation
// run. TotalValue is always collateral + unrealized PnL; realized PnL is
// informational only because the exchange already folds it into collateral.
type AccountMetrics struct {
	AccountID       string          `json:"accountId"`
	IsMain          bool            `json:"isMain"`
	Collateral      decimal.Decimal `json:"collateral"`
	UnrealizedPnl   decimal.Decimal `json:"unrealizedPnl"`
	RealizedPnl     decimal.Decimal `json:"realizedPnl"`
	AllocatedMargin decimal.Decimal `json:"allocatedMargin"`
	TotalValue      decimal.Decimal `json:"totalValue"`
}

// AccountFailure records a per-account query failure within a run.
type AccountFailure struct {
	AccountID string `json:"accountId"`
	Reason    string `json:"reason"`
}

// AggregationResult holds the per-account metrics for the accounts that were
// successfully queried in one run, plus grand totals summed over them.
// Accounts that failed to query are absent from Accounts and listed in
// Failures.
type AggregationResult struct {
	Accounts             []AccountMetrics `json:"accounts"`
	Failures             []AccountFailure `json:"failures"`
	TotalCollateral      decimal.Decimal  `json:"totalCollateral"`
	TotalUnrealizedPnl   decimal.Decimal  `json:"totalUnrealizedPnl"`
	TotalRealizedPnl     decimal.Decimal  `json:"totalRealizedPnl"`
	TotalAllocatedMargin decimal.Decimal  `json:"totalAllocatedMargin"`
	TotalValue           decimal.Decimal  `json:"totalValue"`
	AvailableMargin      decimal.Decimal  `json:"availableMargin"`
}

// Snapshot is one dated measurement of total account value. SnapshotDate is a
// calendar day: midnight UTC, no time component.
type Snapshot struct {
	SnapshotDate time.Time       `json:"snapshotDate" db:"snapshot_date"`
	TotalValue   decimal.Decimal `json:"totalValue" db:"total_value"`
}

// RunReport summarizes one fetch-and-store run for logging and exit-status
// mapping.
type RunReport struct {
	RunID        string             `json:"runId"`
	Result       *AggregationResult `json:"result"`
	SnapshotDate time.Time          `json:"snapshotDate"`
	Backfilled   int                `json:"backfilled"`
}

// Partial reports whether the run succeeded with at least one account failure.
func (r *RunReport) Partial() bool {
	return r.Result != nil && len(r.Result.Failures) > 0
}

// Day truncates t to its calendar day at midnight UTC.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// Package service implements the aggregation and snapshot run orchestration.
package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	apperrors "github.com/account-tracker/internal/errors"
	"github.com/account-tracker/internal/exchange"
	"github.com/account-tracker/internal/logging"
	"github.com/account-tracker/internal/models"
)

// AccountQueryService is the outbound port to the exchange. One call per
// account; each call may fail independently.
type AccountQueryService interface {
	GetAccount(ctx context.Context, accountID string) (*exchange.AccountState, error)
}

// Aggregator drives the AccountQueryService over a known set of account
// identifiers and computes per-account and grand-total values. One account's
// failure never aborts the run.
type Aggregator struct {
	accounts      AccountQueryService
	maxConcurrent int
}

// NewAggregator creates a new aggregator. maxConcurrent bounds the
// per-account query fan-out; values below 1 disable concurrency.
func NewAggregator(accounts AccountQueryService, maxConcurrent int) *Aggregator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Aggregator{
		accounts:      accounts,
		maxConcurrent: maxConcurrent,
	}
}

// accountOutcome is the result of querying one account: exactly one of
// metrics or failure is set.
type accountOutcome struct {
	metrics *models.AccountMetrics
	failure *models.AccountFailure
}

// Aggregate queries every account and sums the values of the ones that
// succeeded. The first identifier is conventionally the main account
// (labeling only). Returns ErrNoDataRetrieved when zero accounts succeeded,
// including for an empty input list.
func (a *Aggregator) Aggregate(ctx context.Context, accountIDs []string, firstIsMain bool) (*models.AggregationResult, error) {
	logger := logging.FromContext(ctx)

	// Each goroutine writes only its own slot; totals are computed after
	// every outstanding query has resolved.
	outcomes := make([]accountOutcome, len(accountIDs))
	sem := make(chan struct{}, a.maxConcurrent)
	var wg sync.WaitGroup

	for i, accountID := range accountIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(slot int, id string, isMain bool) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[slot] = a.queryAccount(ctx, id, isMain)
		}(i, accountID, firstIsMain && i == 0)
	}
	wg.Wait()

	result := &models.AggregationResult{}
	for _, outcome := range outcomes {
		if outcome.failure != nil {
			logger.Warn().
				Str("account_id", outcome.failure.AccountID).
				Str("reason", outcome.failure.Reason).
				Msg("account query failed, skipping")
			result.Failures = append(result.Failures, *outcome.failure)
			continue
		}
		m := *outcome.metrics
		result.Accounts = append(result.Accounts, m)
		result.TotalCollateral = result.TotalCollateral.Add(m.Collateral)
		result.TotalUnrealizedPnl = result.TotalUnrealizedPnl.Add(m.UnrealizedPnl)
		result.TotalRealizedPnl = result.TotalRealizedPnl.Add(m.RealizedPnl)
		result.TotalAllocatedMargin = result.TotalAllocatedMargin.Add(m.AllocatedMargin)
		result.TotalValue = result.TotalValue.Add(m.TotalValue)
	}
	result.AvailableMargin = result.TotalCollateral.Sub(result.TotalAllocatedMargin)

	if len(result.Accounts) == 0 {
		return nil, apperrors.ErrNoDataRetrieved
	}

	return result, nil
}

// queryAccount fetches and computes metrics for one account, converting
// per-account failures into diagnostics instead of errors.
func (a *Aggregator) queryAccount(ctx context.Context, accountID string, isMain bool) accountOutcome {
	state, err := a.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return accountOutcome{failure: &models.AccountFailure{
			AccountID: accountID,
			Reason:    err.Error(),
		}}
	}

	metrics := computeMetrics(state, isMain)
	return accountOutcome{metrics: &metrics}
}

// computeMetrics normalizes the raw account state (absent fields become
// exactly zero) and derives the account's total value. Realized PnL is never
// part of the total: the exchange already folds it into collateral.
func computeMetrics(state *exchange.AccountState, isMain bool) models.AccountMetrics {
	metrics := models.AccountMetrics{
		AccountID:  state.AccountID,
		IsMain:     isMain,
		Collateral: valueOrZero(state.Collateral),
	}

	for _, pos := range state.Positions {
		metrics.UnrealizedPnl = metrics.UnrealizedPnl.Add(valueOrZero(pos.UnrealizedPnl))
		metrics.RealizedPnl = metrics.RealizedPnl.Add(valueOrZero(pos.RealizedPnl))
		metrics.AllocatedMargin = metrics.AllocatedMargin.Add(valueOrZero(pos.AllocatedMargin))
	}

	metrics.TotalValue = metrics.Collateral.Add(metrics.UnrealizedPnl)
	return metrics
}

// valueOrZero treats an absent optional field as exactly zero, never as an
// error.
func valueOrZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}

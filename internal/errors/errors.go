// Package errors defines the error taxonomy for the account tracker.
// Per-account failures (transport, access denied, not found) are recovered
// locally by the aggregator; run-level failures propagate to the entry points
// and map to a non-zero exit status.
package errors

import (
	"errors"
	"fmt"
)

// Run-level sentinel errors. These are hard failures: the run must be
// reported as failed and no partial artifact is produced.
var (
	// ErrNoDataRetrieved is returned when every account in a run failed to
	// query, or the account list was empty.
	ErrNoDataRetrieved = errors.New("no account data retrieved")

	// ErrNothingToRender is returned when rendering is attempted on an
	// empty snapshot series.
	ErrNothingToRender = errors.New("nothing to render: snapshot series is empty")
)

// TransportError represents a network-level failure against the exchange API.
// Retryable by the scheduler on the next period, never within a run.
type TransportError struct {
	AccountID string
	Cause     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error querying account %s: %v", e.AccountID, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewTransportError creates a transport error for a specific account
func NewTransportError(accountID string, cause error) *TransportError {
	return &TransportError{AccountID: accountID, Cause: cause}
}

// AccessDeniedError represents a credential or permission failure for a
// specific account. The account is logged and skipped.
type AccessDeniedError struct {
	AccountID string
	Reason    string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied for account %s: %s", e.AccountID, e.Reason)
}

// NewAccessDeniedError creates an access denied error for a specific account
func NewAccessDeniedError(accountID, reason string) *AccessDeniedError {
	return &AccessDeniedError{AccountID: accountID, Reason: reason}
}

// NotFoundError represents an account the exchange does not know about.
// Treated like access denied: logged, skipped, diagnostic recorded.
type NotFoundError struct {
	AccountID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("account not found: %s", e.AccountID)
}

// NewNotFoundError creates a not found error for a specific account
func NewNotFoundError(accountID string) *NotFoundError {
	return &NotFoundError{AccountID: accountID}
}

// DurableWriteError represents a failed write to the snapshot store.
// Fatal to the run; never retried internally.
type DurableWriteError struct {
	Operation string
	Cause     error
}

func (e *DurableWriteError) Error() string {
	return fmt.Sprintf("durable write failed during %s: %v", e.Operation, e.Cause)
}

func (e *DurableWriteError) Unwrap() error {
	return e.Cause
}

// NewDurableWriteError wraps a storage failure
func NewDurableWriteError(operation string, cause error) *DurableWriteError {
	return &DurableWriteError{Operation: operation, Cause: cause}
}

// IsTransport reports whether err is a transport error.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsAccessDenied reports whether err is an access denied error.
func IsAccessDenied(err error) bool {
	var ae *AccessDeniedError
	return errors.As(err, &ae)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsAccountFailure reports whether err is one of the per-account failures
// the aggregator recovers from locally (skip-and-continue).
func IsAccountFailure(err error) bool {
	return IsTransport(err) || IsAccessDenied(err) || IsNotFound(err)
}

// IsHardFailure reports whether err is a run-level failure that must
// produce a failed run status.
func IsHardFailure(err error) bool {
	if errors.Is(err, ErrNoDataRetrieved) || errors.Is(err, ErrNothingToRender) {
		return true
	}
	var we *DurableWriteError
	return errors.As(err, &we)
}

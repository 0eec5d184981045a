package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	transport := NewTransportError("1", fmt.Errorf("connection refused"))
	denied := NewAccessDeniedError("2", "HTTP 403")
	notFound := NewNotFoundError("3")
	write := NewDurableWriteError("upsert snapshot", fmt.Errorf("disk full"))

	t.Run("account failures are recoverable within a run", func(t *testing.T) {
		assert.True(t, IsTransport(transport))
		assert.True(t, IsAccessDenied(denied))
		assert.True(t, IsNotFound(notFound))

		for _, err := range []error{transport, denied, notFound} {
			assert.True(t, IsAccountFailure(err), "%v", err)
			assert.False(t, IsHardFailure(err), "%v", err)
		}
	})

	t.Run("run-level failures are hard", func(t *testing.T) {
		assert.True(t, IsHardFailure(ErrNoDataRetrieved))
		assert.True(t, IsHardFailure(ErrNothingToRender))
		assert.True(t, IsHardFailure(write))
		assert.False(t, IsAccountFailure(write))
	})

	t.Run("predicates see through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("run failed: %w", transport)
		assert.True(t, IsTransport(wrapped))
		assert.True(t, IsAccountFailure(wrapped))

		wrappedSentinel := fmt.Errorf("aggregate: %w", ErrNoDataRetrieved)
		assert.True(t, IsHardFailure(wrappedSentinel))
	})

	t.Run("unwrap exposes the cause", func(t *testing.T) {
		cause := fmt.Errorf("boom")
		assert.True(t, errors.Is(NewTransportError("1", cause), cause))
		assert.True(t, errors.Is(NewDurableWriteError("backfill", cause), cause))
	})
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, NewTransportError("42", fmt.Errorf("timeout")).Error(), "42")
	assert.Contains(t, NewAccessDeniedError("42", "HTTP 401").Error(), "HTTP 401")
	assert.Contains(t, NewNotFoundError("42").Error(), "42")
	assert.Contains(t, NewDurableWriteError("upsert snapshot", fmt.Errorf("x")).Error(), "upsert snapshot")
}

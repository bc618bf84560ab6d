package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialDelay: time.Millisecond}
}

func TestRetryDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastRetryPolicy(3).Do(context.Background(), "op", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDo_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	err := fastRetryPolicy(3).Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return NewTransientError("gemini", errors.New("rate limited"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryDo_ExhaustsTransient(t *testing.T) {
	calls := 0
	err := fastRetryPolicy(3).Do(context.Background(), "op", func() error {
		calls++
		return NewTransientError("gemini", errors.New("unavailable"))
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, IsTransient(err))
}

func TestRetryDo_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	permanent := NewPermanentError("gemini", errors.New("bad response"))
	err := fastRetryPolicy(3).Do(context.Background(), "op", func() error {
		calls++
		return permanent
	})

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDo_ValidationErrorNotRetried(t *testing.T) {
	calls := 0
	err := fastRetryPolicy(3).Do(context.Background(), "op", func() error {
		calls++
		return NewValidationError("bad input")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDo_ContextCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := RetryPolicy{MaxAttempts: 5, InitialDelay: 50 * time.Millisecond}

	err := policy.Do(ctx, "op", func() error {
		calls++
		cancel()
		return NewTransientError("gemini", errors.New("timeout"))
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryDo_ZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	err := RetryPolicy{MaxAttempts: 0}.Do(context.Background(), "op", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

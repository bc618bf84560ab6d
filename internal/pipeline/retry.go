package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RetryPolicy retries transient external-service failures with exponential
// backoff. Validation errors, precondition violations and permanent service
// errors are never retried.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
	}
}

// Do runs fn up to MaxAttempts times, doubling the delay between attempts.
// The last error is returned once attempts are exhausted.
func (p RetryPolicy) Do(ctx context.Context, operation string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		log.Printf("⚠️  %s attempt %d/%d failed: %v. Retrying in %s...\n",
			operation, attempt, attempts, lastErr, delay)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", operation, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}

// Package retry runs an operation a bounded number of times with
// incremental backoff between attempts.
package retry

import (
	"context"
	"time"
)

// Operation performs one attempt. attempt starts at 0.
type Operation func(attempt int) error

// IsRetryable decides whether a failed attempt may be repeated.
type IsRetryable func(err error) bool

// Always retries every error.
func Always(error) bool { return true }

// WithRetries executes op up to maxRetries+1 times. The delay before retry n
// is n*backoff. It stops early on success, on a non-retryable error, or when
// ctx is done, and returns the last error seen.
func WithRetries(ctx context.Context, op Operation, maxRetries int, backoff time.Duration, isRetryable IsRetryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op(attempt)
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !isRetryable(err) {
			break
		}

		timer := time.NewTimer(time.Duration(attempt+1) * backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

package remote

import (
	"context"
	"errors"
	"time"

	"github.com/odvcencio/bit/pkg/scope"
)

// retryLocked runs fn with exponential backoff while it fails because the
// remote scope's refs are held by another writer. Other errors are
// returned at once.
func retryLocked(ctx context.Context, maxAttempts int, backoff time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lastErr = fn()
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	return errors.Is(err, scope.ErrRefLocked)
}

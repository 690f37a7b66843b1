package messenger

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"

	apperrors "github.com/mmstudyabroad/counselor-bot/internal/errors"
)

// retryWithBackoff calls fn until it succeeds, fails permanently, or
// maxRetries retries have been made.
//
// Backoff formula: delay = initialDelay * 2^attempt ± 25% jitter
//
//	attempt 0: immediate (first try)
//	attempt 1: ~initialDelay
//	attempt 2: ~2 * initialDelay
func retryWithBackoff(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxRetries {
			break
		}

		delay := time.Duration(float64(initialDelay) * math.Pow(2, float64(attempt)))
		halfDelay := max(int64(delay)/2, 1)
		jitterBig, randErr := rand.Int(rand.Reader, big.NewInt(halfDelay))
		if randErr != nil {
			jitterBig = big.NewInt(0)
		}
		delay = delay - delay/4 + time.Duration(jitterBig.Int64())

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		}
	}

	return lastErr
}

// retryable reports whether err may succeed on a later attempt: throttling,
// server errors and transport failures are, client errors and cancellation are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var graphErr *apperrors.GraphError
	if errors.As(err, &graphErr) {
		return graphErr.Temporary()
	}
	return !errors.Is(err, apperrors.ErrNotConfigured) && !errors.Is(err, apperrors.ErrEmptyMessage)
}

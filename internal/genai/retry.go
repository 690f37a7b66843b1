package genai

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"
)

// CalculateBackoff calculates the delay before the next retry attempt.
// Uses AWS-recommended Full Jitter algorithm:
//
//	delay = random(0, min(maxDelay, initialDelay * 2^(attempt-1)))
//
// Reference: https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
func CalculateBackoff(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	exp := math.Pow(2, float64(attempt-1))
	delay := min(time.Duration(float64(initial)*exp), maxDelay)
	if delay <= 0 {
		return 0
	}

	jitter, err := rand.Int(rand.Reader, big.NewInt(int64(delay)))
	if err != nil {
		return delay / 2
	}
	return time.Duration(jitter.Int64())
}

// Sleep waits for the specified duration, respecting context cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasSufficientBudget checks if there's enough time remaining for an operation.
func HasSufficientBudget(ctx context.Context, required time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline) >= required
}

// WithRetry runs fn until it succeeds, returns a non-retryable error, or
// cfg.MaxAttempts is reached. onRetry, when set, is called before each retry.
//
// The delay honors a server Retry-After hint when it is longer than the
// jittered backoff. A retry that would outlive ctx's deadline is not started.
func WithRetry(ctx context.Context, cfg RetryConfig, onRetry func(attempt int, err error), fn func(context.Context) error) error {
	attempts := max(cfg.MaxAttempts, 1)
	var lastErr error

	for attempt := range attempts {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ClassifyError(err) != ActionRetry || attempt == attempts-1 {
			break
		}

		delay := CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)
		var llmErr *LLMError
		if errors.As(err, &llmErr) && llmErr.RetryAfter > delay {
			delay = llmErr.RetryAfter
		}
		if !HasSufficientBudget(ctx, delay) {
			break
		}

		if onRetry != nil {
			onRetry(attempt+1, err)
		}
		if err := Sleep(ctx, delay); err != nil {
			return lastErr
		}
	}

	return lastErr
}

package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls retries of transient provider failures.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the backoff before the first retry; it doubles per attempt.
	BaseDelay time.Duration

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy builds a policy, replacing invalid values with defaults.
func NewRetryPolicy(maxRetries, baseDelaySeconds int, logger *slog.Logger) RetryPolicy {
	if maxRetries < 0 {
		logger.Warn("invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		logger.Warn("invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}
	return RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Duration(baseDelaySeconds) * time.Second,
	}
}

// WithSleep returns a copy of the policy using the given wait function.
func (p RetryPolicy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryPolicy {
	p.sleep = sleep
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs call until it succeeds, returns a non-transient error or the retries
// are exhausted. Only errors wrapping ErrTransientFailure are retried.
// The delay is BaseDelay * 2^attempt scaled by a jitter factor in [0.5, 1.0).
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, call func(ctx context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		err := call(ctx)
		if err == nil {
			return nil
		}

		if !errors.Is(err, ErrTransientFailure) {
			logger.WarnContext(ctx, "permanent error occurred, not retrying",
				"attempt", attempt+1,
				"error", err)
			return err
		}

		if attempt >= p.MaxRetries {
			logger.WarnContext(ctx, "maximum retry attempts reached",
				"max_retries", p.MaxRetries,
				"error", err)
			return fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				ErrTransientFailure, p.MaxRetries, err)
		}

		backoff := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoff * jitterFactor)

		logger.InfoContext(ctx, "retrying after delay",
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		if waitErr := sleep(ctx, delay); waitErr != nil {
			logger.WarnContext(ctx, "call cancelled during retry delay",
				"attempt", attempt+1,
				"ctx_err", waitErr)
			return fmt.Errorf("%w: %v", ErrTransientFailure, waitErr)
		}
	}
}

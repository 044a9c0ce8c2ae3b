package retry

import (
	"context"
	"log/slog"
	"math"
	"time"

	"aotw/internal/logging"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts counts the first call. Values below one mean one attempt.
	MaxAttempts int
	// BaseDelay is the wait after the first failure.
	BaseDelay time.Duration
	// Multiplier scales the delay after each further failure.
	Multiplier float64
	// Retryable reports whether a failure should be retried. Nil retries nothing.
	Retryable func(error) bool
	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(context.Context, time.Duration) error
	// Logger receives one warning per retried failure.
	Logger *slog.Logger
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(multiplier, float64(attempt-1)))
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The error from the last attempt is returned as-is.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	for attempt := 1; ; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		if attempt >= attempts || p.Retryable == nil || !p.Retryable(err) {
			return zero, err
		}
		delay := p.Delay(attempt)
		if p.Logger != nil {
			p.Logger.Warn("attempt failed; retrying",
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", attempts),
				logging.Duration("delay", delay),
				logging.Error(err),
				logging.String(logging.FieldEventType, "retry_scheduled"),
				logging.String(logging.FieldErrorHint, "transient failure; will retry automatically"),
				logging.String(logging.FieldImpact, "operation delayed"),
			)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return zero, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

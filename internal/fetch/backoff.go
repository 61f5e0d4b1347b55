package fetch

import (
	"context"
	"fmt"
	"time"
)

// Backoff configures Retry. Attempt indices passed to Timeout are 0-based;
// the retry counter passed to Delay is the 1-based number of failures so far.
type Backoff struct {
	MaxAttempts        int
	BaseDelay          time.Duration
	AttemptTimeout     time.Duration
	AttemptTimeoutStep time.Duration

	// Name labels metrics and logs.
	Name string
	// OnRetry, if set, is called after a failed attempt that will be retried.
	OnRetry func(attempt int, delay time.Duration, err error)
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultBackoff returns the portal config fetch policy: 5 attempts, 300ms
// base delay, and a per-attempt deadline growing from 5s in 2s steps.
func DefaultBackoff() Backoff {
	return Backoff{
		MaxAttempts:        5,
		BaseDelay:          300 * time.Millisecond,
		AttemptTimeout:     5 * time.Second,
		AttemptTimeoutStep: 2 * time.Second,
	}
}

// Timeout returns the deadline for the given 0-based attempt.
func (b Backoff) Timeout(attempt int) time.Duration {
	return b.AttemptTimeout + time.Duration(attempt)*b.AttemptTimeoutStep
}

// Delay returns the wait after the retry-th failure: BaseDelay * 2^retry.
func (b Backoff) Delay(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}
	return b.BaseDelay << uint(retry)
}

// Retry runs op up to MaxAttempts times, each under its own deadline. Every
// error counts as a failed attempt. It returns the value of the first success
// and the number of attempts made, or ErrExhausted once all attempts fail.
// There is no wait after the final attempt.
func Retry[T any](ctx context.Context, b Backoff, op func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	var zero T
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = 1
	}
	sleep := b.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 0; attempt < b.MaxAttempts; attempt++ {
		v, err := WithDeadline(ctx, b.Timeout(attempt), func(actx context.Context) (T, error) {
			return op(actx, attempt)
		})
		fetchAttempts.WithLabelValues(b.label(), Outcome(err)).Inc()
		if err == nil {
			return v, attempt + 1, nil
		}
		if ctx.Err() != nil {
			return zero, attempt + 1, ctx.Err()
		}
		lastErr = err

		if attempt+1 == b.MaxAttempts {
			break
		}
		delay := b.Delay(attempt + 1)
		if b.OnRetry != nil {
			b.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, attempt + 1, err
		}
	}

	return zero, b.MaxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, b.MaxAttempts, lastErr)
}

func (b Backoff) label() string {
	if b.Name == "" {
		return "default"
	}
	return b.Name
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single request when no deadline is given.
const DefaultTimeout = 6 * time.Second

type result[T any] struct {
	val T
	err error
}

// Race runs op and returns whichever of its outcome or the deadline comes first.
// op is not cancelled when the deadline wins: it keeps running with ctx and its
// result is discarded. The timer is released as soon as the race resolves.
func Race[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		d = DefaultTimeout
	}

	// Buffered so the losing goroutine can always deliver and exit.
	ch := make(chan result[T], 1)
	go func() {
		v, err := op(ctx)
		ch <- result[T]{val: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-ch:
		return r.val, r.err
	case <-timer.C:
		return zero, fmt.Errorf("%w after %s", ErrTimeout, d)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// WithDeadline runs op with a context cancelled after d. Expiry of that
// deadline is reported as ErrTimeout; cancellation of the parent context is
// reported as the parent's error.
func WithDeadline[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		d = DefaultTimeout
	}

	attemptCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	v, err := op(attemptCtx)
	if err == nil {
		return v, nil
	}
	if ctx.Err() != nil {
		return v, ctx.Err()
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return v, fmt.Errorf("%w after %s: %w", ErrTimeout, d, err)
	}
	return v, err
}

// Package fetch provides the deadline-bounded HTTP primitives shared by the
// config loaders and the entity pollers: timeout wrappers, a JSON GET client
// with a small error taxonomy, and an exponential backoff loop.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error taxonomy. Callers match with errors.Is.
var (
	ErrTimeout    = errors.New("timeout")
	ErrNetwork    = errors.New("network failure")
	ErrHTTPStatus = errors.New("http failure")
	ErrParse      = errors.New("parse error")
	ErrExhausted  = errors.New("retry attempts exhausted")
)

// StatusError reports a non-2xx response. It matches ErrHTTPStatus.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is(err, ErrHTTPStatus) succeed for any *StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// StatusCode extracts the HTTP status from err, or 0 if err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// classify maps a transport error onto ErrTimeout or ErrNetwork. A cancelled
// parent context is returned unchanged so shutdown is not reported as a failure.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetwork) {
		return err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// Outcome returns a short label for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrHTTPStatus):
		return "http_error"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "network_error"
	}
}

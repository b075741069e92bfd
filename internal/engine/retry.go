package engine

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig controls retry behavior.
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig is suitable for upstream caption calls.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:  2,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     5 * time.Second,
	Multiplier:  2.0,
}

// NoRetry performs a single attempt.
var NoRetry = RetryConfig{}

// maxRetryElapsed caps the total time spent in one RetryDo call.
const maxRetryElapsed = 30 * time.Second

// RetryDo retries fn up to MaxRetries times with exponential backoff.
// Retries only on retryable errors; returns immediately on non-retryable or context cancellation.
func RetryDo[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	operation := func() (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		result, err := fn()
		if err != nil && !isRetryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}
	return backoff.Retry(ctx, operation, rc.options()...)
}

func (rc RetryConfig) options() []backoff.RetryOption {
	bo := backoff.NewExponentialBackOff()
	if rc.InitialWait > 0 {
		bo.InitialInterval = rc.InitialWait
	}
	if rc.MaxWait > 0 {
		bo.MaxInterval = rc.MaxWait
	}
	if rc.Multiplier > 0 {
		bo.Multiplier = rc.Multiplier
	}
	return []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(max(rc.MaxRetries, 0) + 1)),
		backoff.WithMaxElapsedTime(maxRetryElapsed),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Debug("retrying", slog.Duration("wait", wait), slog.Any("error", err))
		}),
	}
}

// HTTPStatusError carries a non-success HTTP status.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return "HTTP " + http.StatusText(e.StatusCode)
}

// isRetryable returns true for transient errors worth retrying.
func isRetryable(err error) bool {
	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		return IsRetryableStatus(httpErr.StatusCode)
	}

	// Connection errors (dial failures, connection refused, etc.)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// net.Error includes OpError, so check after OpError
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

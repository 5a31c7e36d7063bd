package llmtransport

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig bounds the backoff loop a Client runs around each call.
// Adapted from allaspectsdev-tokenman's internal/proxy/retry.go.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// isRetryableStatus reports whether an HTTP status indicates a transient
// upstream failure worth retrying.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// backoffDelay computes an exponential delay with full jitter, clamped to
// maxDelay.
func backoffDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	exp := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * exp)
	if delay > maxDelay {
		delay = maxDelay
	}
	if delay > 0 {
		delay = time.Duration(rand.Int63n(int64(delay)))
	}
	return delay
}

// sleepWithContext sleeps for d, returning early with ctx.Err() if
// cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

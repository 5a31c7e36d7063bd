package llmtransport

import (
	"sync"
	"time"
)

// CBState is the state of a CircuitBreaker.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

// CircuitBreaker trips after failureThreshold consecutive failures, refuses
// calls for resetTimeout, then allows halfOpenMax probe successes before
// closing again. Adapted from allaspectsdev-tokenman's
// internal/proxy/circuitbreaker.go, scoped to a single provider client
// rather than a registry keyed by provider name.
type CircuitBreaker struct {
	mu sync.Mutex

	state            CBState
	failureThreshold int
	resetTimeout     time.Duration
	halfOpenMax      int

	consecutiveFailures int
	halfOpenSuccesses   int
	lastFailureTime     time.Time
}

// NewCircuitBreaker constructs a breaker with the given thresholds.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		halfOpenMax:      halfOpenMax,
	}
}

// Allow reports whether a call should proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CBOpen:
		if time.Since(cb.lastFailureTime) >= cb.resetTimeout {
			cb.state = CBHalfOpen
			cb.halfOpenSuccesses = 0
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess resets the failure counter and, in the half-open state,
// closes the breaker once enough probes have succeeded.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	if cb.state == CBHalfOpen {
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.halfOpenMax {
			cb.state = CBClosed
		}
	}
}

// RecordFailure records a failed call, tripping the breaker once the
// failure threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case CBClosed:
		if cb.consecutiveFailures >= cb.failureThreshold {
			cb.state = CBOpen
		}
	case CBHalfOpen:
		cb.state = CBOpen
		cb.halfOpenSuccesses = 0
	}
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

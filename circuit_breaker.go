package guidestore

import (
	"context"
	"sync"
	"time"
)

// Circuit breaker states
const (
	BreakerClosed   = "closed"
	BreakerOpen     = "open"
	BreakerHalfOpen = "half-open"
)

// CircuitBreaker makes calls to an unreachable managed backend fail fast
// instead of each one waiting out its own network timeout.
//
// States:
//   - Closed: calls pass through
//   - Open: calls fail with ErrBackendUnavailable without reaching the backend
//   - Half-Open: after resetTimeout, calls pass through again; one success closes the circuit
//
// It never retries; a failed call is returned to the caller as-is.
type CircuitBreaker struct {
	mu            sync.Mutex
	maxFailures   int
	resetTimeout  time.Duration
	failures      int
	lastFailTime  time.Time
	state         string
	onStateChange func(from, to string)
}

// NewCircuitBreaker opens after maxFailures consecutive failures and
// half-opens after resetTimeout.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        BreakerClosed,
	}
}

// WithStateChangeCallback adds a callback for state transitions.
func (cb *CircuitBreaker) WithStateChangeCallback(fn func(from, to string)) *CircuitBreaker {
	cb.onStateChange = fn
	return cb
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.allow() {
		return WithContext(ErrBackendUnavailable, map[string]interface{}{
			"reason": "circuit breaker is open",
		})
	}

	err := fn()
	// A cancelled caller says nothing about backend health.
	if err != nil && ctx.Err() != nil {
		return err
	}
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerOpen {
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.setState(BreakerHalfOpen)
			return true
		}
		return false
	}
	return true
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailTime = time.Now()
		if cb.state == BreakerHalfOpen || (cb.failures >= cb.maxFailures && cb.state != BreakerOpen) {
			cb.setState(BreakerOpen)
		}
		return
	}

	cb.failures = 0
	if cb.state == BreakerHalfOpen {
		cb.setState(BreakerClosed)
	}
}

// setState must be called with mu held
func (cb *CircuitBreaker) setState(newState string) {
	oldState := cb.state
	cb.state = newState
	if cb.onStateChange != nil && oldState != newState {
		cb.onStateChange(oldState, newState)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

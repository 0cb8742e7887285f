package observability

import (
	"fmt"
	"sync"
	"time"
)

// CircuitBreakerState is the state of a circuit breaker.
type CircuitBreakerState int

const (
	// StateClosed allows requests through.
	StateClosed CircuitBreakerState = iota
	// StateOpen blocks requests until the timeout elapses.
	StateOpen
	// StateHalfOpen lets a few probe requests through after the timeout.
	StateHalfOpen
)

// ErrCircuitOpen is returned when the breaker rejects a call.
type ErrCircuitOpen struct{ Name string }

func (e ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker %s is open", e.Name)
}

// CircuitBreaker guards an unreliable upstream. After maxFailures
// consecutive failures it opens for timeout, then half-opens and closes
// again after halfOpenProbes consecutive successes.
type CircuitBreaker struct {
	name        string
	maxFailures int
	timeout     time.Duration

	mu          sync.Mutex
	state       CircuitBreakerState
	failures    int
	successes   int
	lastFailure time.Time
}

const halfOpenProbes = 3

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(name string, maxFailures int, timeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	return &CircuitBreaker{name: name, maxFailures: maxFailures, timeout: timeout, state: StateClosed}
}

// State returns the current state, accounting for timeout expiry.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeHalfOpen()
	return cb.state
}

// Call runs fn under breaker protection.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	cb.maybeHalfOpen()
	if cb.state == StateOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen{Name: cb.name}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		cb.successes = 0
		cb.lastFailure = time.Now()
		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = StateOpen
		}
		return err
	}
	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= halfOpenProbes {
			cb.reset()
		}
	case StateClosed:
		cb.failures = 0
	}
	return nil
}

func (cb *CircuitBreaker) maybeHalfOpen() {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.timeout {
		cb.state = StateHalfOpen
		cb.successes = 0
	}
}

func (cb *CircuitBreaker) reset() {
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
}

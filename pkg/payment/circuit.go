package payment

import (
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// CircuitClosed allows calls to pass through.
	CircuitClosed CircuitState = iota
	// CircuitOpen fails all calls immediately.
	CircuitOpen
	// CircuitHalfOpen admits a single probe call to test recovery.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker trips on the failure rate over a sliding window of
// recent call outcomes. Safe for concurrent use.
//
// While closed, the breaker records each outcome in a fixed-size ring;
// once the ring is full and the failure rate reaches the threshold, the
// breaker opens. After the cooldown a single probe call is admitted:
// its success closes the breaker with a fresh window, its failure
// reopens it and restarts the cooldown.
type CircuitBreaker struct {
	mu sync.Mutex

	windowSize  int
	failureRate float64
	cooldown    time.Duration

	state       CircuitState
	window      []bool // true = failure
	windowPos   int
	windowCount int
	failures    int
	openedAt    time.Time
	probing     bool
}

// NewCircuitBreaker creates a sliding-window circuit breaker. Zero or
// negative arguments fall back to defaults of a 10-call window, a 50%
// failure rate, and a 30 second cooldown.
func NewCircuitBreaker(windowSize int, failureRate float64, cooldown time.Duration) *CircuitBreaker {
	if windowSize <= 0 {
		windowSize = 10
	}
	if failureRate <= 0 || failureRate > 1 {
		failureRate = 0.5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		windowSize:  windowSize,
		failureRate: failureRate,
		cooldown:    cooldown,
		state:       CircuitClosed,
		window:      make([]bool, windowSize),
	}
}

// Allow reports whether a call may proceed. In the open state it admits
// at most one probe per cooldown expiry; further callers keep failing
// until that probe reports its outcome.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true

	case CircuitOpen:
		if time.Since(cb.openedAt) >= cb.cooldown {
			cb.state = CircuitHalfOpen
			cb.probing = true
			return true
		}
		return false

	case CircuitHalfOpen:
		// One in-flight probe at a time.
		if cb.probing {
			return false
		}
		cb.probing = true
		return true

	default:
		return false
	}
}

// RecordSuccess records a successful call. A successful probe closes
// the breaker and discards the failure window.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.record(false)

	case CircuitHalfOpen:
		cb.state = CircuitClosed
		cb.probing = false
		cb.resetWindow()
	}
}

// RecordFailure records a failed call. A failed probe reopens the
// breaker and restarts the cooldown.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.record(true)
		if cb.tripped() {
			cb.state = CircuitOpen
			cb.openedAt = time.Now()
		}

	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.probing = false
		cb.openedAt = time.Now()
	}
}

// record pushes an outcome into the ring, evicting the oldest entry
// once the window is full. Caller holds the lock.
func (cb *CircuitBreaker) record(failed bool) {
	if cb.windowCount == cb.windowSize && cb.window[cb.windowPos] {
		cb.failures--
	}
	cb.window[cb.windowPos] = failed
	cb.windowPos = (cb.windowPos + 1) % cb.windowSize
	if cb.windowCount < cb.windowSize {
		cb.windowCount++
	}
	if failed {
		cb.failures++
	}
}

// tripped reports whether the window is full and the failure rate has
// reached the threshold. Caller holds the lock.
func (cb *CircuitBreaker) tripped() bool {
	if cb.windowCount < cb.windowSize {
		return false
	}
	return float64(cb.failures)/float64(cb.windowSize) >= cb.failureRate
}

func (cb *CircuitBreaker) resetWindow() {
	cb.window = make([]bool, cb.windowSize)
	cb.windowPos = 0
	cb.windowCount = 0
	cb.failures = 0
}

// State returns the current state, accounting for cooldown expiry.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && time.Since(cb.openedAt) >= cb.cooldown {
		return CircuitHalfOpen
	}
	return cb.state
}

// Reset returns the breaker to closed with an empty window.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitClosed
	cb.probing = false
	cb.resetWindow()
}

// CircuitStats provides visibility into breaker state for monitoring.
type CircuitStats struct {
	State    string
	Calls    int
	Failures int
	OpenedAt time.Time
}

// Stats returns the current statistics of the circuit breaker.
func (cb *CircuitBreaker) Stats() CircuitStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitStats{
		State:    cb.state.String(),
		Calls:    cb.windowCount,
		Failures: cb.failures,
		OpenedAt: cb.openedAt,
	}
}

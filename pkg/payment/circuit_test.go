package payment_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cogniq/billing/pkg/payment"
)

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	t.Parallel()

	t.Run("opens when failure rate reaches the threshold", func(t *testing.T) {
		t.Parallel()

		cb := payment.NewCircuitBreaker(10, 0.5, 100*time.Millisecond)

		assert.Equal(t, payment.CircuitClosed, cb.State())
		assert.True(t, cb.Allow())

		// 5 successes and 5 failures fill the window at exactly 50%.
		for range 5 {
			cb.RecordSuccess()
		}
		for range 4 {
			cb.RecordFailure()
		}
		assert.Equal(t, payment.CircuitClosed, cb.State())

		cb.RecordFailure()
		assert.Equal(t, payment.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("does not trip before the window fills", func(t *testing.T) {
		t.Parallel()

		cb := payment.NewCircuitBreaker(10, 0.5, 100*time.Millisecond)

		// 9 straight failures but only 9 recorded calls.
		for range 9 {
			cb.RecordFailure()
		}
		assert.Equal(t, payment.CircuitClosed, cb.State())
		assert.True(t, cb.Allow())
	})

	t.Run("stays closed below the threshold", func(t *testing.T) {
		t.Parallel()

		cb := payment.NewCircuitBreaker(10, 0.5, 100*time.Millisecond)

		for range 6 {
			cb.RecordSuccess()
		}
		for range 4 {
			cb.RecordFailure()
		}
		assert.Equal(t, payment.CircuitClosed, cb.State())
	})

	t.Run("successful probe closes with a fresh window", func(t *testing.T) {
		t.Parallel()

		cb := payment.NewCircuitBreaker(4, 0.5, 30*time.Millisecond)
		for range 4 {
			cb.RecordFailure()
		}
		assert.Equal(t, payment.CircuitOpen, cb.State())

		time.Sleep(40 * time.Millisecond)

		assert.True(t, cb.Allow())
		cb.RecordSuccess()
		assert.Equal(t, payment.CircuitClosed, cb.State())
		assert.Equal(t, 0, cb.Stats().Failures, "old failures discarded after recovery")
	})

	t.Run("failed probe reopens and restarts the cooldown", func(t *testing.T) {
		t.Parallel()

		cb := payment.NewCircuitBreaker(4, 0.5, 30*time.Millisecond)
		for range 4 {
			cb.RecordFailure()
		}
		time.Sleep(40 * time.Millisecond)

		assert.True(t, cb.Allow())
		cb.RecordFailure()
		assert.Equal(t, payment.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})
}

func TestCircuitBreaker_SingleProbe(t *testing.T) {
	t.Parallel()

	cb := payment.NewCircuitBreaker(4, 0.5, 20*time.Millisecond)
	for range 4 {
		cb.RecordFailure()
	}
	time.Sleep(30 * time.Millisecond)

	// Many callers race for the probe slot; exactly one gets through
	// until it reports an outcome.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cb.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, allowed, "half-open admits one probe at a time")
}

func TestCircuitBreaker_Reset(t *testing.T) {
	t.Parallel()

	cb := payment.NewCircuitBreaker(4, 0.5, time.Minute)
	for range 4 {
		cb.RecordFailure()
	}
	assert.Equal(t, payment.CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, payment.CircuitClosed, cb.State())
	assert.True(t, cb.Allow())
	assert.Equal(t, 0, cb.Stats().Calls)
}

func TestCircuitBreaker_SlidingWindowEviction(t *testing.T) {
	t.Parallel()

	cb := payment.NewCircuitBreaker(4, 0.5, time.Minute)

	// Old failures age out of the window as new successes arrive.
	cb.RecordFailure()
	for range 4 {
		cb.RecordSuccess()
	}
	assert.Equal(t, 0, cb.Stats().Failures)

	// Two failures in a window of four is exactly 50%.
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, payment.CircuitOpen, cb.State())
}

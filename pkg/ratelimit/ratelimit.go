package ratelimit

import (
	"context"
	"errors"
	"time"
)

var (
	ErrStoreRequired = errors.New("ratelimit: store is required")
	ErrInvalidLimit  = errors.New("ratelimit: limit must be positive")
	ErrInvalidWindow = errors.New("ratelimit: window must be positive")
	ErrKeyRequired   = errors.New("ratelimit: key is required")
)

// Result reports a single admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should back off before the
// next attempt. Zero when the request was admitted.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter admits or rejects one request for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Store records request timestamps per key.
type Store interface {
	// Admit records now for key when fewer than limit timestamps fall
	// inside the window. The check and the record are a single atomic
	// step. It returns whether the request was admitted and how many
	// in-window timestamps the key holds after the call.
	Admit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int, error)
}

// SlidingWindow admits up to limit requests per key over a moving
// window of the given duration.
type SlidingWindow struct {
	store  Store
	limit  int
	window time.Duration
}

// NewSlidingWindow builds a limiter over the given store.
func NewSlidingWindow(store Store, limit int, window time.Duration) (*SlidingWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &SlidingWindow{store: store, limit: limit, window: window}, nil
}

// Allow records one request for key and reports whether it fits the
// window.
func (sw *SlidingWindow) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := time.Now()
	allowed, count, err := sw.store.Admit(ctx, key, now, sw.window, sw.limit)
	if err != nil {
		return nil, err
	}

	remaining := sw.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   allowed,
		Limit:     sw.limit,
		Remaining: remaining,
		ResetAt:   now.Add(sw.window),
	}, nil
}

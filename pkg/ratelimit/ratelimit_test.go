package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogniq/billing/pkg/ratelimit"
)

func newLimiter(t *testing.T, limit int, window time.Duration) *ratelimit.SlidingWindow {
	t.Helper()
	store := ratelimit.NewMemoryStore()
	t.Cleanup(store.Close)
	limiter, err := ratelimit.NewSlidingWindow(store, limit, window)
	require.NoError(t, err)
	return limiter
}

func TestSlidingWindow_Allow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("admits up to the limit then rejects", func(t *testing.T) {
		t.Parallel()
		limiter := newLimiter(t, 3, time.Minute)

		for i := range 3 {
			result, err := limiter.Allow(ctx, "org:acme")
			require.NoError(t, err)
			assert.True(t, result.Allowed)
			assert.Equal(t, 3, result.Limit)
			assert.Equal(t, 2-i, result.Remaining)
		}

		result, err := limiter.Allow(ctx, "org:acme")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Zero(t, result.Remaining)
		assert.Positive(t, result.RetryAfter())
	})

	t.Run("keys are throttled independently", func(t *testing.T) {
		t.Parallel()
		limiter := newLimiter(t, 1, time.Minute)

		first, err := limiter.Allow(ctx, "org:acme")
		require.NoError(t, err)
		assert.True(t, first.Allowed)

		blocked, err := limiter.Allow(ctx, "org:acme")
		require.NoError(t, err)
		assert.False(t, blocked.Allowed)

		other, err := limiter.Allow(ctx, "user:alice")
		require.NoError(t, err)
		assert.True(t, other.Allowed)
	})

	t.Run("admits again once the window slides past", func(t *testing.T) {
		t.Parallel()
		limiter := newLimiter(t, 2, 50*time.Millisecond)

		for range 2 {
			result, err := limiter.Allow(ctx, "org:acme")
			require.NoError(t, err)
			require.True(t, result.Allowed)
		}
		blocked, err := limiter.Allow(ctx, "org:acme")
		require.NoError(t, err)
		require.False(t, blocked.Allowed)

		time.Sleep(60 * time.Millisecond)

		result, err := limiter.Allow(ctx, "org:acme")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("rejects empty key", func(t *testing.T) {
		t.Parallel()
		limiter := newLimiter(t, 1, time.Minute)

		_, err := limiter.Allow(ctx, "")
		assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)
	})

	t.Run("concurrent callers never exceed the limit", func(t *testing.T) {
		t.Parallel()
		limiter := newLimiter(t, 5, time.Minute)

		var wg sync.WaitGroup
		var mu sync.Mutex
		admitted := 0
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := limiter.Allow(ctx, "org:acme")
				require.NoError(t, err)
				if result.Allowed {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, admitted)
	})
}

func TestNewSlidingWindow_Validation(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(store.Close)

	_, err := ratelimit.NewSlidingWindow(nil, 1, time.Minute)
	assert.ErrorIs(t, err, ratelimit.ErrStoreRequired)

	_, err = ratelimit.NewSlidingWindow(store, 0, time.Minute)
	assert.ErrorIs(t, err, ratelimit.ErrInvalidLimit)

	_, err = ratelimit.NewSlidingWindow(store, 1, 0)
	assert.ErrorIs(t, err, ratelimit.ErrInvalidWindow)
}

type failingStore struct{}

func (failingStore) Admit(context.Context, string, time.Time, time.Duration, int) (bool, int, error) {
	return false, 0, errors.New("store unavailable")
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	byHeader := func(r *http.Request) string { return r.Header.Get("X-Org-Id") }

	t.Run("sets headers and rejects over the limit", func(t *testing.T) {
		t.Parallel()
		limiter := newLimiter(t, 1, time.Minute)
		srv := ratelimit.Middleware(limiter, byHeader)(next)

		req := httptest.NewRequest(http.MethodGet, "/balance", nil)
		req.Header.Set("X-Org-Id", "org_123")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("empty key bypasses the limiter", func(t *testing.T) {
		t.Parallel()
		limiter := newLimiter(t, 1, time.Minute)
		srv := ratelimit.Middleware(limiter, byHeader)(next)

		for range 3 {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance", nil))
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}
	})

	t.Run("fails open when the store errors", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.NewSlidingWindow(failingStore{}, 1, time.Minute)
		require.NoError(t, err)
		srv := ratelimit.Middleware(limiter, byHeader)(next)

		req := httptest.NewRequest(http.MethodGet, "/balance", nil)
		req.Header.Set("X-Org-Id", "org_123")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("panics without limiter or key func", func(t *testing.T) {
		t.Parallel()
		limiter := newLimiter(t, 1, time.Minute)

		assert.Panics(t, func() { ratelimit.Middleware(nil, byHeader) })
		assert.Panics(t, func() { ratelimit.Middleware(limiter, nil) })
	})
}

func TestMemoryStore_Sweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(store.Close)

	now := time.Now()
	allowed, count, err := store.Admit(ctx, "org:acme", now, 10*time.Millisecond, 1)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, count)

	// After the window lapses the same key starts from a clean slate.
	allowed, count, err = store.Admit(ctx, "org:acme", now.Add(20*time.Millisecond), 10*time.Millisecond, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, count)
}

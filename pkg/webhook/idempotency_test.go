package webhook_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogniq/billing/pkg/webhook"
)

func newRedisStore(t *testing.T) (webhook.IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return webhook.NewRedisIdempotencyStore(client, time.Hour), mr
}

func TestRedisIdempotencyStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("mark then seen", func(t *testing.T) {
		t.Parallel()

		store, _ := newRedisStore(t)

		seen, err := store.Seen(ctx, "evt_1")
		require.NoError(t, err)
		assert.False(t, seen)

		require.NoError(t, store.Mark(ctx, "evt_1"))

		seen, err = store.Seen(ctx, "evt_1")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("marks expire after the ttl", func(t *testing.T) {
		t.Parallel()

		store, mr := newRedisStore(t)
		require.NoError(t, store.Mark(ctx, "evt_1"))

		mr.FastForward(2 * time.Hour)

		seen, err := store.Seen(ctx, "evt_1")
		require.NoError(t, err)
		assert.False(t, seen, "expired marks are forgotten")
	})

	t.Run("unavailable store surfaces a typed error", func(t *testing.T) {
		t.Parallel()

		store, mr := newRedisStore(t)
		mr.Close()

		_, err := store.Seen(ctx, "evt_1")
		require.ErrorIs(t, err, webhook.ErrIdempotencyUnavailable)
		require.ErrorIs(t, store.Mark(ctx, "evt_1"), webhook.ErrIdempotencyUnavailable)
	})
}

func TestInMemIdempotencyStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := webhook.NewInMemIdempotencyStore()

	seen, err := store.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Mark(ctx, "evt_1"))

	seen, err = store.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}

package webhook

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers processed event ids so redeliveries can be
// acknowledged without reapplying their transitions.
type IdempotencyStore interface {
	// Seen reports whether the event id has already been processed.
	Seen(ctx context.Context, eventID string) (bool, error)

	// Mark records the event id as processed.
	Mark(ctx context.Context, eventID string) error
}

const idempotencyKeyPrefix = "webhook:event:"

// Provider retry schedules span about three days, so marks older than
// that can expire.
const defaultIdempotencyTTL = 72 * time.Hour

// redisIdempotencyStore keeps processed event ids in Redis so all
// instances behind a load balancer share one view of what has been
// handled.
type redisIdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store.
// Panics on a nil client. A non-positive ttl falls back to 72 hours.
func NewRedisIdempotencyStore(client redis.UniversalClient, ttl time.Duration) IdempotencyStore {
	if client == nil {
		panic("webhook: redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &redisIdempotencyStore{client: client, ttl: ttl}
}

func (s *redisIdempotencyStore) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, idempotencyKeyPrefix+eventID).Result()
	if err != nil {
		return false, errors.Join(ErrIdempotencyUnavailable, err)
	}
	return n > 0, nil
}

func (s *redisIdempotencyStore) Mark(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, idempotencyKeyPrefix+eventID, 1, s.ttl).Err(); err != nil {
		return errors.Join(ErrIdempotencyUnavailable, err)
	}
	return nil
}

// inMemIdempotencyStore suits tests and single-instance deployments.
type inMemIdempotencyStore struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewInMemIdempotencyStore creates an in-memory idempotency store.
func NewInMemIdempotencyStore() IdempotencyStore {
	return &inMemIdempotencyStore{seen: make(map[string]struct{})}
}

func (s *inMemIdempotencyStore) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[eventID]
	return ok, nil
}

func (s *inMemIdempotencyStore) Mark(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[eventID] = struct{}{}
	return nil
}

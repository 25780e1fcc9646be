package subscription

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/tenant"
)

// inMemStore keeps subscriptions in process memory. Used in tests and
// single-node deployments without Postgres.
type inMemStore struct {
	mu   sync.RWMutex
	rows []Subscription
}

// NewInMemStore creates an empty in-memory subscription store.
func NewInMemStore() Store {
	return &inMemStore{}
}

func rowBillingID(sub *Subscription) uuid.UUID {
	if sub.OrgID != nil {
		return *sub.OrgID
	}
	return sub.UserID
}

func (s *inMemStore) Create(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *sub)
	return nil
}

func (s *inMemStore) Update(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == sub.ID {
			s.rows[i] = *sub
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

func (s *inMemStore) FindCurrent(_ context.Context, key tenant.Key) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var trialing *Subscription
	id := key.BillingID()
	for i := range s.rows {
		row := s.rows[i]
		if rowBillingID(&row) != id || !row.Status.IsActiveLike() {
			continue
		}
		if row.Status == StatusActive {
			return &row, nil
		}
		trialing = &row
	}
	if trialing != nil {
		return trialing, nil
	}
	return nil, ErrSubscriptionNotFound
}

func (s *inMemStore) FindByProviderSubID(_ context.Context, providerSubID string) (*Subscription, error) {
	if providerSubID == "" {
		return nil, ErrSubscriptionNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.rows {
		if s.rows[i].ProviderSubID == providerSubID {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, ErrSubscriptionNotFound
}

func (s *inMemStore) List(_ context.Context, key tenant.Key) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := key.BillingID()
	var out []Subscription
	for _, row := range slices.Backward(s.rows) {
		if rowBillingID(&row) == id {
			out = append(out, row)
		}
	}
	return out, nil
}

package ledger

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/tenant"
)

// balanceEntry pairs a balance with its own lock so mutations on
// different tenants never block each other.
type balanceEntry struct {
	mu      sync.Mutex
	balance Balance
}

// inMemStore is the reference Store implementation used in tests and
// single-process deployments. The postgres store in internal/storage
// provides the same guarantees with row-level locks.
type inMemStore struct {
	mu           sync.RWMutex
	balances     map[uuid.UUID]*balanceEntry
	transactions []Transaction
}

// NewInMemStore returns an empty in-memory ledger store.
func NewInMemStore() Store {
	return &inMemStore{
		balances: make(map[uuid.UUID]*balanceEntry),
	}
}

func (s *inMemStore) GetBalance(ctx context.Context, key tenant.Key) (Balance, error) {
	s.mu.RLock()
	entry, ok := s.balances[key.BillingID()]
	s.mu.RUnlock()
	if !ok {
		return Balance{}, ErrBalanceNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.balance, nil
}

func (s *inMemStore) Mutate(ctx context.Context, key tenant.Key, fn func(b *Balance) (*Transaction, error)) (Balance, error) {
	entry := s.entryFor(key)

	// Exclusive access for the whole read-check-write sequence.
	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := entry.balance
	tx, err := fn(&working)
	if err != nil {
		// Validation failure leaves the stored balance untouched.
		return Balance{}, err
	}

	now := time.Now().UTC()
	working.UpdatedAt = now
	entry.balance = working

	if tx != nil {
		tx.ID = uuid.New()
		tx.CreatedAt = now
		s.mu.Lock()
		s.transactions = append(s.transactions, *tx)
		s.mu.Unlock()
	}

	return working, nil
}

func (s *inMemStore) RecentTransactions(ctx context.Context, key tenant.Key, limit int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := key.BillingID()
	out := make([]Transaction, 0, limit)
	for _, tx := range slices.Backward(s.transactions) {
		if !transactionMatches(tx, id) {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *inMemStore) HasProviderRef(ctx context.Context, providerInvoiceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactions {
		if tx.ProviderInvoiceID == providerInvoiceID {
			return true, nil
		}
	}
	return false, nil
}

func (s *inMemStore) entryFor(key tenant.Key) *balanceEntry {
	id := key.BillingID()

	s.mu.RLock()
	entry, ok := s.balances[id]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.balances[id]; ok {
		return entry
	}
	entry = &balanceEntry{
		balance: Balance{
			ID:        uuid.New(),
			OrgID:     key.OrgID,
			UserID:    key.UserID,
			CreatedAt: time.Now().UTC(),
		},
	}
	s.balances[id] = entry
	return entry
}

func transactionMatches(tx Transaction, billingID uuid.UUID) bool {
	if tx.OrgID != nil && *tx.OrgID == billingID {
		return true
	}
	return tx.OrgID == nil && tx.UserID == billingID
}

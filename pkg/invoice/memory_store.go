package invoice

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/tenant"
)

type inMemStore struct {
	mu   sync.RWMutex
	rows []Invoice
}

// NewInMemStore creates an empty in-memory invoice store.
func NewInMemStore() Store {
	return &inMemStore{}
}

func rowBillingID(inv *Invoice) uuid.UUID {
	if inv.OrgID != nil {
		return *inv.OrgID
	}
	return inv.UserID
}

func (s *inMemStore) Insert(_ context.Context, inv *Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ProviderInvoiceID == inv.ProviderInvoiceID {
			return ErrDuplicateInvoice
		}
	}
	s.rows = append(s.rows, *inv)
	return nil
}

func (s *inMemStore) List(_ context.Context, key tenant.Key) ([]Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := key.BillingID()
	var out []Invoice
	for _, row := range slices.Backward(s.rows) {
		if rowBillingID(&row) == id {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *inMemStore) Get(_ context.Context, id uuid.UUID, key tenant.Key) (*Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	billingID := key.BillingID()
	for i := range s.rows {
		if s.rows[i].ID == id && rowBillingID(&s.rows[i]) == billingID {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, ErrInvoiceNotFound
}

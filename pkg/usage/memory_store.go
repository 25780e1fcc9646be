package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/tenant"
)

type inMemStore struct {
	mu   sync.RWMutex
	rows []Record
}

// NewInMemStore creates an empty in-memory usage store.
func NewInMemStore() Store {
	return &inMemStore{}
}

func rowBillingID(rec *Record) uuid.UUID {
	if rec.OrgID != nil {
		return *rec.OrgID
	}
	return rec.UserID
}

func (s *inMemStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *rec)
	return nil
}

func (s *inMemStore) TotalsSince(_ context.Context, key tenant.Key, since time.Time) (map[Type]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := key.BillingID()
	totals := make(map[Type]int64)
	for i := range s.rows {
		row := &s.rows[i]
		if rowBillingID(row) != id || row.RecordedAt.Before(since) {
			continue
		}
		totals[row.Type] += row.Quantity
	}
	return totals, nil
}

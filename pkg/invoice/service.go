package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/tenant"
)

// RecordParams carries one paid provider invoice for mirroring.
type RecordParams struct {
	Key               tenant.Key
	ProviderInvoiceID string
	ProviderSubID     string
	AmountCents       int64
	Currency          string
	PeriodStart       time.Time
	PeriodEnd         time.Time
}

// Service exposes invoice history reads and the mirror write used by
// the payment event pipeline.
type Service struct {
	store Store
	log   *slog.Logger
}

// ServiceOption configures the invoice service.
type ServiceOption func(*Service)

func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates an invoice service. Panics on a nil store.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("invoice: Store is required")
	}
	s := &Service{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordPaid mirrors a paid provider invoice. Recording the same
// provider invoice twice is a logged no-op so event redelivery cannot
// duplicate history.
func (s *Service) RecordPaid(ctx context.Context, params RecordParams) error {
	now := time.Now().UTC()
	inv := &Invoice{
		ID:                uuid.New(),
		OrgID:             params.Key.OrgID,
		UserID:            params.Key.UserID,
		ProviderInvoiceID: params.ProviderInvoiceID,
		ProviderSubID:     params.ProviderSubID,
		AmountCents:       params.AmountCents,
		Currency:          params.Currency,
		Status:            StatusPaid,
		PeriodStart:       params.PeriodStart,
		PeriodEnd:         params.PeriodEnd,
		PaidAt:            now,
		CreatedAt:         now,
	}
	if err := s.store.Insert(ctx, inv); err != nil {
		if errors.Is(err, ErrDuplicateInvoice) {
			s.log.InfoContext(ctx, "invoice already mirrored, skipping",
				slog.String("provider_invoice_id", params.ProviderInvoiceID),
			)
			return nil
		}
		return fmt.Errorf("invoice: record: %w", err)
	}
	return nil
}

// List returns the key's billing history, newest first.
func (s *Service) List(ctx context.Context, key tenant.Key) ([]Invoice, error) {
	return s.store.List(ctx, key)
}

// Get returns a single invoice scoped to the key.
func (s *Service) Get(ctx context.Context, id uuid.UUID, key tenant.Key) (*Invoice, error) {
	return s.store.Get(ctx, id, key)
}

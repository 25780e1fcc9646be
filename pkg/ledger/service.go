package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cogniq/billing/internal/metrics"
	"github.com/cogniq/billing/pkg/correlation"
	"github.com/cogniq/billing/pkg/tenant"
)

const defaultCurrency = "USD"

// Service implements the credit ledger operations on top of a Store.
type Service struct {
	store Store
	log   *slog.Logger
}

// Option configures the ledger service.
type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a ledger service. Panics if store is nil to fail
// fast during initialization.
func NewService(store Store, opts ...Option) *Service {
	if store == nil {
		panic("ledger: Store is required")
	}
	s := &Service{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBalance returns the tenant's balance, zero-valued when none exists
// yet. Reading never creates a row.
func (s *Service) GetBalance(ctx context.Context, key tenant.Key) (Balance, error) {
	b, err := s.store.GetBalance(ctx, key)
	if err == nil {
		return b, nil
	}
	if errors.Is(err, ErrBalanceNotFound) {
		return Balance{OrgID: key.OrgID, UserID: key.UserID}, nil
	}
	return Balance{}, fmt.Errorf("ledger: get balance: %w", err)
}

// Consume debits amount credits from the tenant's balance. The whole
// read-check-write runs under the store's exclusive access, so two
// concurrent consumes against one remaining credit yield exactly one
// success and one ErrInsufficientCredits.
//
// The correlation id falls back to the ambient request id when the
// caller supplies none; it is persisted on the CONSUME transaction.
func (s *Service) Consume(ctx context.Context, key tenant.Key, amount int, correlationID string) (Balance, error) {
	if amount < 1 {
		return Balance{}, ErrInvalidAmount
	}
	corrID := correlationID
	if corrID == "" {
		corrID = correlation.FromContext(ctx)
	}

	updated, err := s.store.Mutate(ctx, key, func(b *Balance) (*Transaction, error) {
		available := b.Available()
		if available < amount {
			metrics.PaymentFailure(metrics.ReasonInsufficientCredits)
			s.log.WarnContext(ctx, "insufficient credits",
				slog.Any("org_id", key.OrgID),
				slog.Any("user_id", key.UserID),
				slog.Int("available", available),
				slog.Int("requested", amount),
				slog.String("correlation_id", corrID),
			)
			return nil, fmt.Errorf("%w: available %d, required %d", ErrInsufficientCredits, available, amount)
		}
		b.Used += amount
		return &Transaction{
			OrgID:         key.OrgID,
			UserID:        key.UserID,
			Amount:        -int64(amount),
			Currency:      defaultCurrency,
			Type:          TypeConsume,
			CorrelationID: corrID,
		}, nil
	})
	if err != nil {
		return Balance{}, err
	}

	s.log.InfoContext(ctx, "credits consumed",
		slog.Any("org_id", key.OrgID),
		slog.Any("user_id", key.UserID),
		slog.Int("amount", amount),
		slog.String("correlation_id", corrID),
		slog.Int("available_after", updated.Available()),
	)
	return updated, nil
}

// Provision grants credits to the tenant's balance, e.g. on a paid
// invoice. The appended transaction carries the provider invoice id so
// replayed invoice events can be detected.
func (s *Service) Provision(ctx context.Context, key tenant.Key, credits int, txType TransactionType, providerInvoiceID string) error {
	if credits < 0 {
		return ErrInvalidCredits
	}

	_, err := s.store.Mutate(ctx, key, func(b *Balance) (*Transaction, error) {
		b.Total += credits
		return &Transaction{
			OrgID:             key.OrgID,
			UserID:            key.UserID,
			Amount:            int64(credits),
			Currency:          defaultCurrency,
			Type:              txType,
			ProviderInvoiceID: providerInvoiceID,
		}, nil
	})
	if err != nil {
		return fmt.Errorf("ledger: provision: %w", err)
	}

	s.log.InfoContext(ctx, "credits provisioned",
		slog.Any("org_id", key.OrgID),
		slog.Any("user_id", key.UserID),
		slog.Int("credits", credits),
		slog.String("type", string(txType)),
	)
	return nil
}

// RecentTransactions returns up to limit transactions, newest first.
func (s *Service) RecentTransactions(ctx context.Context, key tenant.Key, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.RecentTransactions(ctx, key, limit)
}

// HasProviderRef reports whether credits were already provisioned for a
// provider invoice id.
func (s *Service) HasProviderRef(ctx context.Context, providerInvoiceID string) (bool, error) {
	if providerInvoiceID == "" {
		return false, nil
	}
	return s.store.HasProviderRef(ctx, providerInvoiceID)
}

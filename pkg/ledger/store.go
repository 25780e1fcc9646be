package ledger

import (
	"context"

	"github.com/cogniq/billing/pkg/tenant"
)

// Store defines ledger persistence. Implementations must make Mutate
// atomic per billing key: a row-level exclusive lock in SQL stores, a
// per-key mutex in memory.
type Store interface {
	// GetBalance returns the balance for a key, or ErrBalanceNotFound.
	// Observation-only: never creates a row.
	GetBalance(ctx context.Context, key tenant.Key) (Balance, error)

	// Mutate acquires exclusive access to the key's balance, creating a
	// zero balance first when absent, and runs fn against it. When fn
	// returns a transaction, the updated balance and the appended
	// transaction are persisted together; when fn returns an error,
	// nothing is persisted and the error is returned unchanged.
	Mutate(ctx context.Context, key tenant.Key, fn func(b *Balance) (*Transaction, error)) (Balance, error)

	// RecentTransactions returns the key's transactions newest-first,
	// bounded by limit.
	RecentTransactions(ctx context.Context, key tenant.Key, limit int) ([]Transaction, error)

	// HasProviderRef reports whether any transaction already references
	// the given provider invoice id. Backs invoice-paid idempotency.
	HasProviderRef(ctx context.Context, providerInvoiceID string) (bool, error)
}

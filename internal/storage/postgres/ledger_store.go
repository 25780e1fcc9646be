package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cogniq/billing/pkg/ledger"
	"github.com/cogniq/billing/pkg/tenant"
)

// LedgerStore implements ledger.Store over Postgres. Mutations lock the
// balance row with SELECT ... FOR UPDATE so concurrent consumers of the
// same key serialize instead of double spending.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a Postgres ledger store. Panics on a nil pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &LedgerStore{pool: pool}
}

func (s *LedgerStore) GetBalance(ctx context.Context, key tenant.Key) (ledger.Balance, error) {
	const query = `
		SELECT id, org_id, user_id, total_credits, used_credits, created_at, updated_at
		FROM credit_balances
		WHERE billing_id = $1`

	var b ledger.Balance
	err := queryTarget(ctx, s.pool).QueryRow(ctx, query, key.BillingID()).Scan(
		&b.ID, &b.OrgID, &b.UserID, &b.Total, &b.Used, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Balance{}, ledger.ErrBalanceNotFound
	}
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("postgres: get balance: %w", err)
	}
	return b, nil
}

func (s *LedgerStore) Mutate(ctx context.Context, key tenant.Key, fn func(b *ledger.Balance) (*ledger.Transaction, error)) (ledger.Balance, error) {
	var out ledger.Balance
	err := NewUnitOfWork(s.pool).Run(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.mutateLocked(ctx, key, fn)
		return err
	})
	return out, err
}

func (s *LedgerStore) mutateLocked(ctx context.Context, key tenant.Key, fn func(b *ledger.Balance) (*ledger.Transaction, error)) (ledger.Balance, error) {
	q := queryTarget(ctx, s.pool)
	now := time.Now().UTC()

	// Balances are created lazily on first mutation.
	const ensure = `
		INSERT INTO credit_balances (id, org_id, user_id, billing_id, total_credits, used_credits, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, 0, 0, $4, $4)
		ON CONFLICT (billing_id) DO NOTHING`
	if _, err := q.Exec(ctx, ensure, key.OrgID, key.UserID, key.BillingID(), now); err != nil {
		return ledger.Balance{}, fmt.Errorf("postgres: ensure balance: %w", err)
	}

	const lock = `
		SELECT id, org_id, user_id, total_credits, used_credits, created_at, updated_at
		FROM credit_balances
		WHERE billing_id = $1
		FOR UPDATE`
	var b ledger.Balance
	err := q.QueryRow(ctx, lock, key.BillingID()).Scan(
		&b.ID, &b.OrgID, &b.UserID, &b.Total, &b.Used, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("postgres: lock balance: %w", err)
	}

	txn, err := fn(&b)
	if err != nil {
		return ledger.Balance{}, err
	}

	b.UpdatedAt = now
	const update = `
		UPDATE credit_balances
		SET total_credits = $2, used_credits = $3, updated_at = $4
		WHERE id = $1`
	if _, err := q.Exec(ctx, update, b.ID, b.Total, b.Used, b.UpdatedAt); err != nil {
		return ledger.Balance{}, fmt.Errorf("postgres: update balance: %w", err)
	}

	if txn != nil {
		const insert = `
			INSERT INTO credit_transactions
				(id, org_id, user_id, billing_id, amount, currency, type, correlation_id, provider_invoice_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		_, err := q.Exec(ctx, insert,
			txn.ID, txn.OrgID, txn.UserID, key.BillingID(),
			txn.Amount, txn.Currency, txn.Type,
			txn.CorrelationID, txn.ProviderInvoiceID, txn.CreatedAt,
		)
		if err != nil {
			return ledger.Balance{}, fmt.Errorf("postgres: insert transaction: %w", err)
		}
	}

	return b, nil
}

func (s *LedgerStore) RecentTransactions(ctx context.Context, key tenant.Key, limit int) ([]ledger.Transaction, error) {
	const query = `
		SELECT id, org_id, user_id, amount, currency, type, correlation_id, provider_invoice_id, created_at
		FROM credit_transactions
		WHERE billing_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := queryTarget(ctx, s.pool).Query(ctx, query, key.BillingID(), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var t ledger.Transaction
		err := rows.Scan(&t.ID, &t.OrgID, &t.UserID, &t.Amount, &t.Currency, &t.Type,
			&t.CorrelationID, &t.ProviderInvoiceID, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *LedgerStore) HasProviderRef(ctx context.Context, providerInvoiceID string) (bool, error) {
	if providerInvoiceID == "" {
		return false, nil
	}

	const query = `SELECT EXISTS (SELECT 1 FROM credit_transactions WHERE provider_invoice_id = $1)`
	var exists bool
	if err := queryTarget(ctx, s.pool).QueryRow(ctx, query, providerInvoiceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: provider ref lookup: %w", err)
	}
	return exists, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cogniq/billing/pkg/invoice"
	"github.com/cogniq/billing/pkg/pg"
	"github.com/cogniq/billing/pkg/tenant"
)

const invoiceColumns = `
	id, org_id, user_id, provider_invoice_id, provider_sub_id, amount_cents,
	currency, status, period_start, period_end, paid_at, created_at`

// InvoiceStore implements invoice.Store over Postgres.
type InvoiceStore struct {
	pool *pgxpool.Pool
}

// NewInvoiceStore creates a Postgres invoice store. Panics on a nil
// pool.
func NewInvoiceStore(pool *pgxpool.Pool) *InvoiceStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &InvoiceStore{pool: pool}
}

func (s *InvoiceStore) Insert(ctx context.Context, inv *invoice.Invoice) error {
	const query = `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := queryTarget(ctx, s.pool).Exec(ctx, query,
		inv.ID, inv.OrgID, inv.UserID, inv.ProviderInvoiceID, inv.ProviderSubID,
		inv.AmountCents, inv.Currency, inv.Status, inv.PeriodStart, inv.PeriodEnd,
		inv.PaidAt, inv.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return invoice.ErrDuplicateInvoice
	}
	if err != nil {
		return fmt.Errorf("postgres: insert invoice: %w", err)
	}
	return nil
}

func (s *InvoiceStore) List(ctx context.Context, key tenant.Key) ([]invoice.Invoice, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE COALESCE(org_id, user_id) = $1
		ORDER BY created_at DESC`

	rows, err := queryTarget(ctx, s.pool).Query(ctx, query, key.BillingID())
	if err != nil {
		return nil, fmt.Errorf("postgres: list invoices: %w", err)
	}
	defer rows.Close()

	var out []invoice.Invoice
	for rows.Next() {
		var inv invoice.Invoice
		err := rows.Scan(&inv.ID, &inv.OrgID, &inv.UserID, &inv.ProviderInvoiceID,
			&inv.ProviderSubID, &inv.AmountCents, &inv.Currency, &inv.Status,
			&inv.PeriodStart, &inv.PeriodEnd, &inv.PaidAt, &inv.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *InvoiceStore) Get(ctx context.Context, id uuid.UUID, key tenant.Key) (*invoice.Invoice, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND COALESCE(org_id, user_id) = $2`

	var inv invoice.Invoice
	err := queryTarget(ctx, s.pool).QueryRow(ctx, query, id, key.BillingID()).Scan(
		&inv.ID, &inv.OrgID, &inv.UserID, &inv.ProviderInvoiceID,
		&inv.ProviderSubID, &inv.AmountCents, &inv.Currency, &inv.Status,
		&inv.PeriodStart, &inv.PeriodEnd, &inv.PaidAt, &inv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, invoice.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get invoice: %w", err)
	}
	return &inv, nil
}

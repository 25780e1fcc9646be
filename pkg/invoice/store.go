package invoice

import (
	"context"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/tenant"
)

// Store defines invoice persistence. Provider invoice ids are unique;
// lookups follow the org-preferred, user-fallback billing key.
type Store interface {
	// Insert persists a new invoice. ErrDuplicateInvoice when the
	// provider invoice id is already mirrored.
	Insert(ctx context.Context, inv *Invoice) error

	// List returns the key's invoices, newest first.
	List(ctx context.Context, key tenant.Key) ([]Invoice, error)

	// Get returns one invoice scoped to the key, or ErrInvoiceNotFound.
	Get(ctx context.Context, id uuid.UUID, key tenant.Key) (*Invoice, error)
}

package usage

import (
	"context"
	"time"

	"github.com/cogniq/billing/pkg/tenant"
)

// Store defines usage persistence.
type Store interface {
	// Insert persists one usage record.
	Insert(ctx context.Context, rec *Record) error

	// TotalsSince returns per-type quantity sums for the key's records
	// at or after the given instant.
	TotalsSince(ctx context.Context, key tenant.Key, since time.Time) (map[Type]int64, error)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cogniq/billing/pkg/tenant"
	"github.com/cogniq/billing/pkg/usage"
)

// UsageStore implements usage.Store over Postgres.
type UsageStore struct {
	pool *pgxpool.Pool
}

// NewUsageStore creates a Postgres usage store. Panics on a nil pool.
func NewUsageStore(pool *pgxpool.Pool) *UsageStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &UsageStore{pool: pool}
}

func (s *UsageStore) Insert(ctx context.Context, rec *usage.Record) error {
	const query = `
		INSERT INTO usage_records (id, org_id, user_id, usage_type, quantity, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := queryTarget(ctx, s.pool).Exec(ctx, query,
		rec.ID, rec.OrgID, rec.UserID, rec.Type, rec.Quantity, rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert usage record: %w", err)
	}
	return nil
}

func (s *UsageStore) TotalsSince(ctx context.Context, key tenant.Key, since time.Time) (map[usage.Type]int64, error) {
	const query = `
		SELECT usage_type, COALESCE(SUM(quantity), 0)
		FROM usage_records
		WHERE COALESCE(org_id, user_id) = $1 AND recorded_at >= $2
		GROUP BY usage_type`

	rows, err := queryTarget(ctx, s.pool).Query(ctx, query, key.BillingID(), since)
	if err != nil {
		return nil, fmt.Errorf("postgres: usage totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[usage.Type]int64)
	for rows.Next() {
		var (
			usageType usage.Type
			sum       int64
		)
		if err := rows.Scan(&usageType, &sum); err != nil {
			return nil, fmt.Errorf("postgres: scan usage total: %w", err)
		}
		totals[usageType] = sum
	}
	return totals, rows.Err()
}

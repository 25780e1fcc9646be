package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cogniq/billing/pkg/plan"
)

// PlanSource implements plan.Source over the plans table. The catalog
// loads once at startup; plan edits ship as migrations.
type PlanSource struct {
	pool *pgxpool.Pool
}

// NewPlanSource creates a Postgres plan source. Panics on a nil pool.
func NewPlanSource(pool *pgxpool.Pool) *PlanSource {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &PlanSource{pool: pool}
}

func (s *PlanSource) Load(ctx context.Context) ([]plan.Plan, error) {
	const query = `
		SELECT id, name, tier, price_cents, currency, billing_interval,
		       credit_allotment, seat_limit, limits, active, sort_order
		FROM plans
		ORDER BY sort_order`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: load plans: %w", err)
	}
	defer rows.Close()

	var out []plan.Plan
	for rows.Next() {
		var p plan.Plan
		err := rows.Scan(&p.ID, &p.Name, &p.Tier, &p.PriceCents, &p.Currency, &p.Interval,
			&p.CreditAllotment, &p.SeatLimit, &p.Limits, &p.Active, &p.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cogniq/billing/pkg/subscription"
	"github.com/cogniq/billing/pkg/tenant"
)

const subscriptionColumns = `
	id, org_id, user_id, plan_id, tier, provider_customer_id, provider_sub_id,
	status, current_period_start, current_period_end, cancel_at_period_end,
	cancelled_at, created_at, updated_at`

// SubscriptionStore implements subscription.Store over Postgres.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore creates a Postgres subscription store. Panics on
// a nil pool.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &SubscriptionStore{pool: pool}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	const query = `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := queryTarget(ctx, s.pool).Exec(ctx, query,
		sub.ID, sub.OrgID, sub.UserID, sub.PlanID, sub.Tier,
		sub.ProviderCustomerID, sub.ProviderSubID, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.CancelledAt, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	const query = `
		UPDATE subscriptions
		SET status = $2, current_period_start = $3, current_period_end = $4,
		    cancel_at_period_end = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $1`

	tag, err := queryTarget(ctx, s.pool).Exec(ctx, query,
		sub.ID, sub.Status, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd, sub.CancelledAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

func (s *SubscriptionStore) FindCurrent(ctx context.Context, key tenant.Key) (*subscription.Subscription, error) {
	// Active wins over trialing when both somehow exist.
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE COALESCE(org_id, user_id) = $1 AND status IN ('active', 'trialing')
		ORDER BY CASE status WHEN 'active' THEN 0 ELSE 1 END
		LIMIT 1`

	return s.scanOne(queryTarget(ctx, s.pool).QueryRow(ctx, query, key.BillingID()))
}

func (s *SubscriptionStore) FindByProviderSubID(ctx context.Context, providerSubID string) (*subscription.Subscription, error) {
	if providerSubID == "" {
		return nil, subscription.ErrSubscriptionNotFound
	}

	const query = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE provider_sub_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	return s.scanOne(queryTarget(ctx, s.pool).QueryRow(ctx, query, providerSubID))
}

func (s *SubscriptionStore) List(ctx context.Context, key tenant.Key) ([]subscription.Subscription, error) {
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE COALESCE(org_id, user_id) = $1
		ORDER BY created_at DESC`

	rows, err := queryTarget(ctx, s.pool).Query(ctx, query, key.BillingID())
	if err != nil {
		return nil, fmt.Errorf("postgres: list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []subscription.Subscription
	for rows.Next() {
		var sub subscription.Subscription
		if err := scanSubscription(rows, &sub); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SubscriptionStore) scanOne(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := scanSubscription(row, &sub)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func scanSubscription(row pgx.Row, sub *subscription.Subscription) error {
	err := row.Scan(
		&sub.ID, &sub.OrgID, &sub.UserID, &sub.PlanID, &sub.Tier,
		&sub.ProviderCustomerID, &sub.ProviderSubID, &sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd,
		&sub.CancelledAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("postgres: scan subscription: %w", err)
	}
	return err
}

package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/subscription"
	"github.com/cogniq/billing/pkg/tenant"
)

// CurrentSubscription resolves the tenant's active-like subscription.
// Satisfied by *subscription.Service.
type CurrentSubscription interface {
	Current(ctx context.Context, key tenant.Key) (*subscription.Subscription, error)
}

// Service records metered usage and builds monthly summaries.
type Service struct {
	store Store
	plans *plan.Catalog
	subs  CurrentSubscription
	log   *slog.Logger
	now   func() time.Time
}

// ServiceOption configures the usage service.
type ServiceOption func(*Service)

func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock replaces the wall clock, used in tests around month
// boundaries.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a usage service. Panics on nil dependencies.
func NewService(store Store, plans *plan.Catalog, subs CurrentSubscription, opts ...ServiceOption) *Service {
	if store == nil {
		panic("usage: Store is required")
	}
	if plans == nil {
		panic("usage: plan catalog is required")
	}
	if subs == nil {
		panic("usage: CurrentSubscription is required")
	}
	s := &Service{
		store: store,
		plans: plans,
		subs:  subs,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record persists one consumption entry for the key.
func (s *Service) Record(ctx context.Context, key tenant.Key, usageType Type, quantity int64) error {
	if _, err := ParseType(string(usageType)); err != nil {
		return err
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	rec := &Record{
		ID:         uuid.New(),
		OrgID:      key.OrgID,
		UserID:     key.UserID,
		Type:       usageType,
		Quantity:   quantity,
		RecordedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("usage: record: %w", err)
	}
	return nil
}

// Summary aggregates the current calendar month's usage per type
// against the key's plan limits. Tenants without a subscription are
// measured against the free plan.
func (s *Service) Summary(ctx context.Context, key tenant.Key) (*Summary, error) {
	since := monthStart(s.now())
	totals, err := s.store.TotalsSince(ctx, key, since)
	if err != nil {
		return nil, fmt.Errorf("usage: totals: %w", err)
	}

	limits := s.limitsFor(ctx, key)
	summary := &Summary{MonthStart: since}
	for _, usageType := range []Type{TypeComputeHours, TypeTeamSeats, TypeDatasetCount, TypeTrainingJobs, TypeAPICalls} {
		limit := plan.Unlimited
		if v, ok := limits[string(usageType)]; ok {
			limit = v
		}
		summary.Items = append(summary.Items, Item{
			Type:  usageType,
			Used:  totals[usageType],
			Limit: limit,
		})
	}
	return summary, nil
}

func (s *Service) limitsFor(ctx context.Context, key tenant.Key) map[string]int64 {
	tier := plan.TierFree
	sub, err := s.subs.Current(ctx, key)
	switch {
	case err == nil:
		tier = sub.Tier
	case !errors.Is(err, subscription.ErrSubscriptionNotFound):
		s.log.WarnContext(ctx, "subscription lookup failed, using free limits",
			slog.Any("user_id", key.UserID),
			slog.Any("error", err),
		)
	}

	p, err := s.plans.ByTier(tier)
	if err != nil {
		return nil
	}
	return p.Limits
}

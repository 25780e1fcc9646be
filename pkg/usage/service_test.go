package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/subscription"
	"github.com/cogniq/billing/pkg/tenant"
	"github.com/cogniq/billing/pkg/usage"
)

type staticSubs struct {
	sub *subscription.Subscription
}

func (s staticSubs) Current(context.Context, tenant.Key) (*subscription.Subscription, error) {
	if s.sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return s.sub, nil
}

func usageCatalog(t *testing.T) *plan.Catalog {
	t.Helper()
	src := plan.NewInMemSource(
		plan.Plan{
			ID: uuid.New(), Name: "Free", Tier: plan.TierFree,
			Interval: plan.BillingIntervalNone, Active: true,
			Limits: map[string]int64{
				"compute_hours": 10,
				"api_calls":     1000,
			},
		},
		plan.Plan{
			ID: uuid.New(), Name: "Pro", Tier: plan.TierPro,
			PriceCents: 2900, Currency: "usd", Interval: plan.BillingIntervalMonthly,
			CreditAllotment: 100, SeatLimit: 5, Active: true,
			Limits: map[string]int64{
				"compute_hours": 200,
				"api_calls":     plan.Unlimited,
			},
		},
	)
	cat, err := plan.NewCatalog(context.Background(), src)
	require.NoError(t, err)
	return cat
}

func TestService_Record(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := usage.NewService(usage.NewInMemStore(), usageCatalog(t), staticSubs{})
	key := tenant.UserKey(uuid.New())

	require.NoError(t, svc.Record(ctx, key, usage.TypeComputeHours, 3))

	err := svc.Record(ctx, key, usage.Type("gpu_minutes"), 1)
	require.ErrorIs(t, err, usage.ErrUnknownUsageType)

	err = svc.Record(ctx, key, usage.TypeAPICalls, 0)
	require.ErrorIs(t, err, usage.ErrInvalidQuantity)
}

func TestService_Summary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("totals the current month against plan limits", func(t *testing.T) {
		t.Parallel()

		key := tenant.UserKey(uuid.New())
		sub := &subscription.Subscription{UserID: key.UserID, Tier: plan.TierPro, Status: subscription.StatusActive}
		svc := usage.NewService(usage.NewInMemStore(), usageCatalog(t), staticSubs{sub: sub})

		require.NoError(t, svc.Record(ctx, key, usage.TypeComputeHours, 3))
		require.NoError(t, svc.Record(ctx, key, usage.TypeComputeHours, 4))
		require.NoError(t, svc.Record(ctx, key, usage.TypeAPICalls, 250))

		summary, err := svc.Summary(ctx, key)
		require.NoError(t, err)

		byType := make(map[usage.Type]usage.Item)
		for _, item := range summary.Items {
			byType[item.Type] = item
		}
		assert.EqualValues(t, 7, byType[usage.TypeComputeHours].Used)
		assert.EqualValues(t, 200, byType[usage.TypeComputeHours].Limit)
		assert.EqualValues(t, 250, byType[usage.TypeAPICalls].Used)
		assert.EqualValues(t, plan.Unlimited, byType[usage.TypeAPICalls].Limit)
		assert.EqualValues(t, plan.Unlimited, byType[usage.TypeTrainingJobs].Limit, "dimensions without a configured limit are unlimited")
	})

	t.Run("no subscription falls back to free limits", func(t *testing.T) {
		t.Parallel()

		key := tenant.UserKey(uuid.New())
		svc := usage.NewService(usage.NewInMemStore(), usageCatalog(t), staticSubs{})

		summary, err := svc.Summary(ctx, key)
		require.NoError(t, err)

		for _, item := range summary.Items {
			if item.Type == usage.TypeComputeHours {
				assert.EqualValues(t, 10, item.Limit)
			}
		}
	})

	t.Run("records before the month start are excluded", func(t *testing.T) {
		t.Parallel()

		key := tenant.UserKey(uuid.New())
		now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		clock := now

		store := usage.NewInMemStore()
		svc := usage.NewService(store, usageCatalog(t), staticSubs{},
			usage.WithClock(func() time.Time { return clock }))

		// One record in February, one in March.
		clock = now.AddDate(0, -1, 0)
		require.NoError(t, svc.Record(ctx, key, usage.TypeTrainingJobs, 5))
		clock = now
		require.NoError(t, svc.Record(ctx, key, usage.TypeTrainingJobs, 2))

		summary, err := svc.Summary(ctx, key)
		require.NoError(t, err)
		for _, item := range summary.Items {
			if item.Type == usage.TypeTrainingJobs {
				assert.EqualValues(t, 2, item.Used)
			}
		}
	})
}

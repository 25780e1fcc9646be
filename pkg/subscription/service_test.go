package subscription_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogniq/billing/pkg/ledger"
	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/subscription"
	"github.com/cogniq/billing/pkg/tenant"
)

// fakeProvisioner records provisioned invoice refs so renewal
// idempotency can be asserted without a full ledger.
type fakeProvisioner struct {
	mu       sync.Mutex
	grants   []int
	seenRefs map[string]bool
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{seenRefs: make(map[string]bool)}
}

func (f *fakeProvisioner) Provision(_ context.Context, _ tenant.Key, credits int, _ ledger.TransactionType, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, credits)
	if ref != "" {
		f.seenRefs[ref] = true
	}
	return nil
}

func (f *fakeProvisioner) HasProviderRef(_ context.Context, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seenRefs[ref], nil
}

func testCatalog(t *testing.T) *plan.Catalog {
	t.Helper()
	src := plan.NewInMemSource(
		plan.Plan{
			ID:        uuid.New(),
			Name:      "Free",
			Tier:      plan.TierFree,
			Interval:  plan.BillingIntervalNone,
			SeatLimit: 1,
			Active:    true,
		},
		plan.Plan{
			ID:              uuid.New(),
			Name:            "Pro",
			Tier:            plan.TierPro,
			PriceCents:      2900,
			Currency:        "usd",
			Interval:        plan.BillingIntervalMonthly,
			CreditAllotment: 100,
			SeatLimit:       5,
			Active:          true,
		},
		plan.Plan{
			ID:              uuid.New(),
			Name:            "Enterprise",
			Tier:            plan.TierEnterprise,
			PriceCents:      9900,
			Currency:        "usd",
			Interval:        plan.BillingIntervalMonthly,
			CreditAllotment: 500,
			SeatLimit:       25,
			Active:          true,
		},
	)
	cat, err := plan.NewCatalog(context.Background(), src)
	require.NoError(t, err)
	return cat
}

func TestService_CreateFromCheckout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	key := tenant.UserKey(uuid.New())

	t.Run("creates active subscription with provider refs", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())
		sub, err := svc.CreateFromCheckout(ctx, key, plan.TierPro, "cus_123", "sub_123")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Equal(t, "cus_123", sub.ProviderCustomerID)
		assert.Equal(t, "sub_123", sub.ProviderSubID)
		assert.True(t, sub.CurrentPeriodEnd.After(sub.CurrentPeriodStart))

		got, err := svc.Current(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, got.ID)
	})

	t.Run("rejects second active subscription for the same tenant", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())
		k := tenant.UserKey(uuid.New())
		_, err := svc.CreateFromCheckout(ctx, k, plan.TierPro, "cus_1", "sub_1")
		require.NoError(t, err)

		_, err = svc.CreateFromCheckout(ctx, k, plan.TierEnterprise, "cus_1", "sub_2")
		require.ErrorIs(t, err, subscription.ErrAlreadySubscribed)
	})

	t.Run("allows a new subscription after the previous one is canceled", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())
		k := tenant.UserKey(uuid.New())
		_, err := svc.CreateFromCheckout(ctx, k, plan.TierPro, "cus_1", "sub_1")
		require.NoError(t, err)

		_, err = svc.CancelByProviderID(ctx, "sub_1")
		require.NoError(t, err)

		sub, err := svc.CreateFromCheckout(ctx, k, plan.TierEnterprise, "cus_1", "sub_2")
		require.NoError(t, err)
		assert.Equal(t, plan.TierEnterprise, sub.Tier)

		history, err := svc.List(ctx, k)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}

func TestService_RenewOnInvoicePaid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("provisions the tier allotment and advances the period", func(t *testing.T) {
		t.Parallel()

		prov := newFakeProvisioner()
		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), prov)
		k := tenant.UserKey(uuid.New())
		created, err := svc.CreateFromCheckout(ctx, k, plan.TierPro, "cus_1", "sub_1")
		require.NoError(t, err)

		renewed, err := svc.RenewOnInvoicePaid(ctx, "sub_1", "in_001")
		require.NoError(t, err)
		assert.Equal(t, []int{100}, prov.grants)
		assert.False(t, renewed.CurrentPeriodEnd.Before(created.CurrentPeriodEnd))
	})

	t.Run("replaying the same invoice does not double provision", func(t *testing.T) {
		t.Parallel()

		prov := newFakeProvisioner()
		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), prov)
		k := tenant.UserKey(uuid.New())
		_, err := svc.CreateFromCheckout(ctx, k, plan.TierEnterprise, "cus_1", "sub_1")
		require.NoError(t, err)

		_, err = svc.RenewOnInvoicePaid(ctx, "sub_1", "in_001")
		require.NoError(t, err)
		_, err = svc.RenewOnInvoicePaid(ctx, "sub_1", "in_001")
		require.NoError(t, err)

		assert.Equal(t, []int{500}, prov.grants, "one grant for two deliveries of the same invoice")
	})

	t.Run("returns a past due subscription to active", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())
		k := tenant.UserKey(uuid.New())
		_, err := svc.CreateFromCheckout(ctx, k, plan.TierPro, "cus_1", "sub_1")
		require.NoError(t, err)
		_, err = svc.MarkPastDue(ctx, "sub_1")
		require.NoError(t, err)

		renewed, err := svc.RenewOnInvoicePaid(ctx, "sub_1", "in_002")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, renewed.Status)
	})

	t.Run("unknown provider subscription id", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())
		_, err := svc.RenewOnInvoicePaid(ctx, "sub_missing", "in_001")
		require.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})
}

func TestService_CancelByProviderID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("cancels and stamps cancellation time once", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())
		k := tenant.UserKey(uuid.New())
		_, err := svc.CreateFromCheckout(ctx, k, plan.TierPro, "cus_1", "sub_1")
		require.NoError(t, err)

		first, err := svc.CancelByProviderID(ctx, "sub_1")
		require.NoError(t, err)
		require.NotNil(t, first.CancelledAt)
		assert.Equal(t, subscription.StatusCanceled, first.Status)

		// Redelivered event is a no-op preserving the original timestamp.
		second, err := svc.CancelByProviderID(ctx, "sub_1")
		require.NoError(t, err)
		require.NotNil(t, second.CancelledAt)
		assert.Equal(t, *first.CancelledAt, *second.CancelledAt)
	})

	t.Run("missing provider id", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())
		_, err := svc.CancelByProviderID(ctx, "")
		require.ErrorIs(t, err, subscription.ErrMissingProviderRef)
	})
}

func TestService_ScheduleCancelAtPeriodEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("flags without changing status", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())
		k := tenant.UserKey(uuid.New())
		_, err := svc.CreateFromCheckout(ctx, k, plan.TierPro, "cus_1", "sub_1")
		require.NoError(t, err)

		sub, err := svc.ScheduleCancelAtPeriodEnd(ctx, k)
		require.NoError(t, err)
		assert.True(t, sub.CancelAtPeriodEnd)
		assert.Equal(t, subscription.StatusActive, sub.Status)
	})

	t.Run("no current subscription", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())
		_, err := svc.ScheduleCancelAtPeriodEnd(ctx, tenant.UserKey(uuid.New()))
		require.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})
}

func TestService_SeatLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())

	k := tenant.UserKey(uuid.New())
	assert.Equal(t, 1, svc.SeatLimit(ctx, k), "no subscription defaults to one seat")

	_, err := svc.CreateFromCheckout(ctx, k, plan.TierEnterprise, "cus_1", "sub_1")
	require.NoError(t, err)
	assert.Equal(t, 25, svc.SeatLimit(ctx, k))
}

func TestService_OrgSubscriptionSharedByMembers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := subscription.NewService(subscription.NewInMemStore(), testCatalog(t), newFakeProvisioner())

	orgID := uuid.New()
	admin := tenant.OrgKey(orgID, uuid.New())
	member := tenant.OrgKey(orgID, uuid.New())

	_, err := svc.CreateFromCheckout(ctx, admin, plan.TierPro, "cus_1", "sub_1")
	require.NoError(t, err)

	// Any member of the org resolves the same subscription.
	got, err := svc.Current(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", got.ProviderSubID)

	// And cannot open a second one.
	_, err = svc.CreateFromCheckout(ctx, member, plan.TierPro, "cus_2", "sub_2")
	require.ErrorIs(t, err, subscription.ErrAlreadySubscribed)
}

package plan_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogniq/billing/pkg/plan"
)

func testPlans() []plan.Plan {
	return []plan.Plan{
		{
			ID:        uuid.New(),
			Name:      "Free",
			Tier:      plan.TierFree,
			Currency:  "USD",
			Interval:  plan.BillingIntervalNone,
			SeatLimit: 1,
			Active:    true,
			SortOrder: 0,
		},
		{
			ID:              uuid.New(),
			Name:            "Pro",
			Tier:            plan.TierPro,
			PriceCents:      9900,
			Currency:        "USD",
			Interval:        plan.BillingIntervalMonthly,
			CreditAllotment: 100,
			SeatLimit:       10,
			Limits:          map[string]int64{"training_jobs": 50},
			Active:          true,
			SortOrder:       1,
		},
		{
			ID:              uuid.New(),
			Name:            "Enterprise Quantum",
			Tier:            plan.TierEnterprise,
			PriceCents:      49900,
			Currency:        "USD",
			Interval:        plan.BillingIntervalMonthly,
			CreditAllotment: 500,
			SeatLimit:       100,
			Limits:          map[string]int64{"training_jobs": plan.Unlimited},
			Active:          true,
			SortOrder:       2,
		},
	}
}

func newTestCatalog(t *testing.T) *plan.Catalog {
	t.Helper()
	c, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(testPlans()...))
	require.NoError(t, err)
	return c
}

func TestCatalogLookups(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t)

	pro, err := c.ByTier(plan.TierPro)
	require.NoError(t, err)
	assert.Equal(t, 100, pro.CreditAllotment)
	assert.Equal(t, "$99.00 / Month", pro.PriceDisplay())

	got, err := c.ByID(pro.ID)
	require.NoError(t, err)
	assert.Equal(t, pro, got)

	_, err = c.ByID(uuid.New())
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestCatalogTierHelpers(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t)

	assert.Equal(t, 100, c.CreditsForTier(plan.TierPro))
	assert.Equal(t, 500, c.CreditsForTier(plan.TierEnterprise))
	assert.Equal(t, 0, c.CreditsForTier(plan.TierFree))

	assert.Equal(t, 10, c.SeatLimitForTier(plan.TierPro))
	assert.Equal(t, 1, c.SeatLimitForTier(plan.TierFree))
}

func TestCatalogListActiveOrdered(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t)

	active := c.ListActive()
	require.Len(t, active, 3)
	assert.Equal(t, plan.TierFree, active[0].Tier)
	assert.Equal(t, plan.TierEnterprise, active[2].Tier)
}

func TestCatalogRejectsDuplicateActiveTier(t *testing.T) {
	t.Parallel()

	plans := testPlans()
	dup := plans[1]
	dup.ID = uuid.New()
	plans = append(plans, dup)

	_, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(plans...))
	assert.ErrorIs(t, err, plan.ErrInvalidPlanConfiguration)
}

func TestParseTier(t *testing.T) {
	t.Parallel()

	tier, err := plan.ParseTier("PRO")
	require.NoError(t, err)
	assert.Equal(t, plan.TierPro, tier)

	_, err = plan.ParseTier("platinum")
	assert.ErrorIs(t, err, plan.ErrUnknownTier)
}

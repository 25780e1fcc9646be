package plan

import (
	"fmt"

	"github.com/google/uuid"
)

// Tier is a named plan level controlling price, credit allotment, and
// seat limits.
type Tier string

const (
	TierFree       Tier = "FREE"
	TierPro        Tier = "PRO"
	TierEnterprise Tier = "ENTERPRISE"
)

// ParseTier converts a tier string (e.g. from checkout session metadata)
// into a Tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree, TierPro, TierEnterprise:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
}

// BillingInterval represents the billing frequency for a plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // free plans with no billing
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// Unlimited indicates no limit for a resource (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Plan describes one catalog entry.
type Plan struct {
	ID              uuid.UUID
	Name            string
	Tier            Tier
	PriceCents      int64
	Currency        string
	Interval        BillingInterval
	CreditAllotment int   // credits granted on every paid invoice
	SeatLimit       int   // team seats; consumed by the auth service
	Limits          map[string]int64
	Active          bool
	SortOrder       int
}

// IsFree reports whether the plan requires no payment.
func (p Plan) IsFree() bool {
	return p.Tier == TierFree || p.PriceCents == 0
}

// PriceDisplay formats the price for UI consumption, e.g. "$99.00 / Month".
func (p Plan) PriceDisplay() string {
	if p.IsFree() {
		return "Free"
	}
	interval := "Month"
	if p.Interval == BillingIntervalAnnual {
		interval = "Year"
	}
	return fmt.Sprintf("$%.2f / %s", float64(p.PriceCents)/100, interval)
}

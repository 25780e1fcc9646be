package plan

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Source defines how plans are loaded into the catalog.
type Source interface {
	Load(ctx context.Context) ([]Plan, error)
}

// Catalog is the read-only plan lookup used by the subscription service
// and the payment gateway. Safe for concurrent use because it never
// mutates after construction.
type Catalog struct {
	byID   map[uuid.UUID]Plan
	byTier map[Tier]Plan
	sorted []Plan
}

// NewCatalog loads plans from the source and validates the result.
// Panics when src is nil to fail fast during initialization.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		panic("plan: Source is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	c := &Catalog{
		byID:   make(map[uuid.UUID]Plan, len(plans)),
		byTier: make(map[Tier]Plan, len(plans)),
	}
	for _, p := range plans {
		c.byID[p.ID] = p
		if p.Active {
			c.byTier[p.Tier] = p
		}
	}

	c.sorted = slices.Clone(plans)
	slices.SortFunc(c.sorted, func(a, b Plan) int { return a.SortOrder - b.SortOrder })

	return c, nil
}

// ByID returns the plan with the given id.
func (c *Catalog) ByID(id uuid.UUID) (Plan, error) {
	p, ok := c.byID[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return p, nil
}

// ByTier returns the active plan for a tier.
func (c *Catalog) ByTier(tier Tier) (Plan, error) {
	p, ok := c.byTier[tier]
	if !ok {
		return Plan{}, fmt.Errorf("%w: tier %s", ErrPlanNotFound, tier)
	}
	return p, nil
}

// ListActive returns active plans in display order.
func (c *Catalog) ListActive() []Plan {
	out := make([]Plan, 0, len(c.sorted))
	for _, p := range c.sorted {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// CreditsForTier returns the monthly credit allotment for a tier, zero for
// tiers without an active plan. Used when sizing invoice-paid provisioning.
func (c *Catalog) CreditsForTier(tier Tier) int {
	p, ok := c.byTier[tier]
	if !ok {
		return 0
	}
	return p.CreditAllotment
}

// SeatLimitForTier returns the team seat limit for a tier, defaulting to 1.
func (c *Catalog) SeatLimitForTier(tier Tier) int {
	p, ok := c.byTier[tier]
	if !ok || p.SeatLimit <= 0 {
		return 1
	}
	return p.SeatLimit
}

// validatePlans catches configuration errors early: duplicate ids or
// active tiers, negative allotments.
func validatePlans(plans []Plan) error {
	seenID := make(map[uuid.UUID]bool, len(plans))
	seenTier := make(map[Tier]bool, len(plans))
	for _, p := range plans {
		if p.ID == uuid.Nil {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %q has no id", p.Name))
		}
		if seenID[p.ID] {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("duplicate plan id %s", p.ID))
		}
		seenID[p.ID] = true

		if p.Active {
			if seenTier[p.Tier] {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("multiple active plans for tier %s", p.Tier))
			}
			seenTier[p.Tier] = true
		}

		if p.CreditAllotment < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative credit allotment: %d", p.Tier, p.CreditAllotment))
		}
	}
	return nil
}

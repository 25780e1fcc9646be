package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/plan"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled" // terminal
)

// IsActiveLike reports whether the status counts against the
// one-active-subscription-per-tenant invariant.
func (s Status) IsActiveLike() bool {
	return s == StatusActive || s == StatusTrialing
}

// transitions lists the legal target statuses per current status.
// Canceled is terminal.
var transitions = map[Status][]Status{
	StatusActive:   {StatusPastDue, StatusCanceled},
	StatusTrialing: {StatusActive, StatusPastDue, StatusCanceled},
	StatusPastDue:  {StatusActive, StatusCanceled},
	StatusCanceled: {},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Subscription is one lifecycle instance for a tenant. Multiple
// historical rows may exist per tenant, one per lifecycle.
type Subscription struct {
	ID                 uuid.UUID
	OrgID              *uuid.UUID
	UserID             uuid.UUID
	PlanID             uuid.UUID
	Tier               plan.Tier
	ProviderCustomerID string
	ProviderSubID      string
	Status             Status
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

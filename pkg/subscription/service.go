package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/ledger"
	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/tenant"
)

// billingPeriod is one billing interval; periods run start..start+1mo.
const billingPeriodMonths = 1

// Provisioner is the slice of the credit ledger the renewal path needs.
// Satisfied by *ledger.Service.
type Provisioner interface {
	Provision(ctx context.Context, key tenant.Key, credits int, txType ledger.TransactionType, providerInvoiceID string) error
	HasProviderRef(ctx context.Context, providerInvoiceID string) (bool, error)
}

// Service drives subscription lifecycle transitions.
type Service struct {
	store         Store
	plans         *plan.Catalog
	credits       Provisioner
	log           *slog.Logger
	initialStatus Status
}

// Option configures the subscription service.
type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTrialStatus makes newly created subscriptions start in trialing
// instead of active. Trial expiry handling is owned by the period
// rollover job, not this service.
func WithTrialStatus() Option {
	return func(s *Service) {
		s.initialStatus = StatusTrialing
	}
}

// NewService creates a subscription service. Panics on nil dependencies
// to fail fast during initialization.
func NewService(store Store, plans *plan.Catalog, credits Provisioner, opts ...Option) *Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if plans == nil {
		panic("subscription: plan catalog is required")
	}
	if credits == nil {
		panic("subscription: Provisioner is required")
	}
	s := &Service{
		store:         store,
		plans:         plans,
		credits:       credits,
		log:           slog.Default(),
		initialStatus: StatusActive,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current resolves the key's subscription in active or trialing status,
// preferring active. At most one such row exists by construction.
func (s *Service) Current(ctx context.Context, key tenant.Key) (*Subscription, error) {
	return s.store.FindCurrent(ctx, key)
}

// List returns the key's subscription history, newest first.
func (s *Service) List(ctx context.Context, key tenant.Key) ([]Subscription, error) {
	return s.store.List(ctx, key)
}

// Subscribe creates a subscription for a plan chosen by id (the explicit
// subscribe call, used for free plans and internal flows). Fails with
// ErrAlreadySubscribed when the tenant already has an active-like row.
func (s *Service) Subscribe(ctx context.Context, key tenant.Key, planID uuid.UUID) (*Subscription, error) {
	p, err := s.plans.ByID(planID)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, key, p, "", "")
}

// CreateFromCheckout creates a subscription from a completed checkout
// session, carrying the provider's customer and subscription references.
func (s *Service) CreateFromCheckout(ctx context.Context, key tenant.Key, tier plan.Tier, providerCustomerID, providerSubID string) (*Subscription, error) {
	p, err := s.plans.ByTier(tier)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, key, p, providerCustomerID, providerSubID)
}

func (s *Service) create(ctx context.Context, key tenant.Key, p plan.Plan, providerCustomerID, providerSubID string) (*Subscription, error) {
	// At most one active-like subscription per tenant.
	if _, err := s.store.FindCurrent(ctx, key); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("subscription: check existing: %w", err)
	}

	now := time.Now().UTC()
	sub := &Subscription{
		ID:                 uuid.New(),
		OrgID:              key.OrgID,
		UserID:             key.UserID,
		PlanID:             p.ID,
		Tier:               p.Tier,
		ProviderCustomerID: providerCustomerID,
		ProviderSubID:      providerSubID,
		Status:             s.initialStatus,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, billingPeriodMonths, 0),
		CancelAtPeriodEnd:  false,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscription: create: %w", err)
	}

	s.log.InfoContext(ctx, "subscription created",
		slog.Any("org_id", key.OrgID),
		slog.Any("user_id", key.UserID),
		slog.String("tier", string(p.Tier)),
		slog.String("provider_sub_id", providerSubID),
	)
	return sub, nil
}

// RenewOnInvoicePaid applies a paid provider invoice to the subscription
// it references: provisions the tier's credit allotment, advances the
// billing period, and, when the subscription was past due, returns it to
// active. Replaying the same invoice id is a no-op so provider
// redelivery cannot double-provision credits.
func (s *Service) RenewOnInvoicePaid(ctx context.Context, providerSubID, providerInvoiceID string) (*Subscription, error) {
	if providerSubID == "" {
		return nil, ErrMissingProviderRef
	}

	sub, err := s.store.FindByProviderSubID(ctx, providerSubID)
	if err != nil {
		return nil, err
	}

	if providerInvoiceID != "" {
		applied, err := s.credits.HasProviderRef(ctx, providerInvoiceID)
		if err != nil {
			return nil, fmt.Errorf("subscription: invoice idempotency check: %w", err)
		}
		if applied {
			s.log.InfoContext(ctx, "invoice already provisioned, skipping",
				slog.String("provider_invoice_id", providerInvoiceID),
				slog.String("provider_sub_id", providerSubID),
			)
			return sub, nil
		}
	}

	now := time.Now().UTC()
	if sub.Status == StatusPastDue {
		sub.Status = StatusActive
	}
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = now.AddDate(0, billingPeriodMonths, 0)
	sub.UpdatedAt = now
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscription: renew: %w", err)
	}

	key := tenant.NewKey(sub.UserID, sub.OrgID)
	credits := s.plans.CreditsForTier(sub.Tier)
	if err := s.credits.Provision(ctx, key, credits, ledger.TypeSubscriptionPurchase, providerInvoiceID); err != nil {
		return nil, fmt.Errorf("subscription: provision renewal credits: %w", err)
	}

	s.log.InfoContext(ctx, "invoice applied",
		slog.Any("user_id", sub.UserID),
		slog.String("provider_sub_id", providerSubID),
		slog.Int("credits", credits),
	)
	return sub, nil
}

// ScheduleCancelAtPeriodEnd flags the tenant's current subscription to
// end when the billing period rolls over. Status is unchanged; the
// rollover job applies the actual cancellation.
func (s *Service) ScheduleCancelAtPeriodEnd(ctx context.Context, key tenant.Key) (*Subscription, error) {
	sub, err := s.store.FindCurrent(ctx, key)
	if err != nil {
		return nil, err
	}
	if !sub.Status.IsActiveLike() {
		return nil, ErrNotCancellable
	}

	sub.CancelAtPeriodEnd = true
	sub.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscription: schedule cancel: %w", err)
	}

	s.log.InfoContext(ctx, "subscription set to cancel at period end",
		slog.Any("org_id", key.OrgID),
		slog.Any("user_id", key.UserID),
	)
	return sub, nil
}

// CancelByProviderID applies a provider subscription-deleted event:
// the row moves to canceled regardless of its current status and the
// cancellation time is stamped once. Reapplying the same event is a
// no-op that preserves the original timestamp.
func (s *Service) CancelByProviderID(ctx context.Context, providerSubID string) (*Subscription, error) {
	if providerSubID == "" {
		return nil, ErrMissingProviderRef
	}

	sub, err := s.store.FindByProviderSubID(ctx, providerSubID)
	if err != nil {
		return nil, err
	}
	if sub.IsCanceled() {
		return sub, nil
	}

	now := time.Now().UTC()
	sub.Status = StatusCanceled
	sub.CancelledAt = &now
	sub.UpdatedAt = now
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscription: cancel: %w", err)
	}

	s.log.InfoContext(ctx, "subscription canceled",
		slog.Any("user_id", sub.UserID),
		slog.String("provider_sub_id", providerSubID),
	)
	return sub, nil
}

// MarkPastDue moves the current subscription to past due. Reserved for
// a future invoice-failed event type; no current webhook produces it.
func (s *Service) MarkPastDue(ctx context.Context, providerSubID string) (*Subscription, error) {
	sub, err := s.store.FindByProviderSubID(ctx, providerSubID)
	if err != nil {
		return nil, err
	}
	if !canTransition(sub.Status, StatusPastDue) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, StatusPastDue)
	}

	sub.Status = StatusPastDue
	sub.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscription: mark past due: %w", err)
	}
	return sub, nil
}

// SeatLimit returns the team seat limit of the key's current plan,
// defaulting to 1 when no subscription exists. Consumed by the auth
// service through the internal API.
func (s *Service) SeatLimit(ctx context.Context, key tenant.Key) int {
	sub, err := s.store.FindCurrent(ctx, key)
	if err != nil {
		return 1
	}
	return s.plans.SeatLimitForTier(sub.Tier)
}

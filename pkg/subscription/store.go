package subscription

import (
	"context"

	"github.com/cogniq/billing/pkg/tenant"
)

// Store defines subscription persistence. Lookups by billing key honor
// the org-preferred, user-fallback policy; lookups by provider id are
// global because webhook events carry no tenant context.
type Store interface {
	// Create persists a new subscription row.
	Create(ctx context.Context, sub *Subscription) error

	// Update persists changes to an existing row.
	Update(ctx context.Context, sub *Subscription) error

	// FindCurrent returns the key's subscription in an active-like
	// status, preferring active over trialing. ErrSubscriptionNotFound
	// when none exists.
	FindCurrent(ctx context.Context, key tenant.Key) (*Subscription, error)

	// FindByProviderSubID returns the subscription with the given
	// provider subscription id, or ErrSubscriptionNotFound.
	FindByProviderSubID(ctx context.Context, providerSubID string) (*Subscription, error)

	// List returns all of the key's subscription rows, newest first.
	List(ctx context.Context, key tenant.Key) ([]Subscription, error)
}

package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrAlreadySubscribed is the Conflict surfaced when a tenant with an
	// active or trialing subscription tries to create another one.
	ErrAlreadySubscribed  = errors.New("tenant already has an active subscription")
	ErrInvalidTransition  = errors.New("invalid subscription status transition")
	ErrNotCancellable     = errors.New("subscription cannot be cancelled from its current status")
	ErrMissingProviderRef = errors.New("provider subscription id is required")
)

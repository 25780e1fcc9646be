// Package subscription owns the lifecycle of a tenant's subscription.
//
// A tenant has at most one subscription in an active-like status
// (active or trialing) at any time; the invariant is enforced before
// every create. Lifecycle transitions are driven by checkout completion,
// paid invoices, and cancellation — either scheduled by the user for the
// period end or applied immediately when the payment provider reports
// the subscription deleted. Provider-driven cancellation is idempotent:
// replaying the deletion event is a no-op.
package subscription

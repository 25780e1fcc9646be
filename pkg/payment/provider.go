package payment

import (
	"context"
	"encoding/json"

	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/tenant"
)

// CheckoutParams carries everything a provider needs to open a hosted
// checkout session for a paid plan.
type CheckoutParams struct {
	Key           tenant.Key
	Plan          plan.Plan
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider's hosted checkout page reference.
// The URL is handed to the frontend for redirect.
type CheckoutSession struct {
	ID  string
	URL string
}

// ProviderEvent is a signature-verified webhook delivery. Payload is
// the raw event object for the processor to decode.
type ProviderEvent struct {
	ID      string
	Type    string
	Payload json.RawMessage
}

// Provider abstracts the external payment service. Implementations must
// be safe for concurrent use.
type Provider interface {
	// CreateCheckoutSession opens a hosted checkout session. Providers
	// must honor ctx cancellation so the gateway can bound call time.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// VerifyWebhook checks the delivery's signature and returns the
	// decoded event envelope, or ErrInvalidSignature.
	VerifyWebhook(payload []byte, signature string) (*ProviderEvent, error)
}

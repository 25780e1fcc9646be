package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider against the Stripe API. Each
// instance owns its client so keys are never process-global.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed provider. The secret key is
// an sk_test_ or sk_live_ key; the webhook secret is the whsec_ signing
// secret of the configured endpoint. Panics when either is empty.
func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	if secretKey == "" {
		panic("payment: stripe secret key is required")
	}
	if webhookSecret == "" {
		panic("payment: stripe webhook secret is required")
	}
	return &StripeProvider{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession opens a hosted subscription checkout for the
// plan. The tenant key and tier travel in session metadata so the
// checkout.session.completed webhook can attribute the purchase.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	interval := stripe.PriceRecurringIntervalMonth
	if params.Plan.Interval == "annual" {
		interval = stripe.PriceRecurringIntervalYear
	}

	metadata := map[string]string{
		"user_id":   params.Key.UserID.String(),
		"plan_tier": string(params.Plan.Tier),
	}
	if params.Key.OrgID != nil {
		metadata["org_id"] = params.Key.OrgID.String()
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(params.Plan.Currency),
					UnitAmount: stripe.Int64(params.Plan.PriceCents),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(interval)),
					},
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.Plan.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: metadata,
	}
	if params.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	sessionParams.Context = ctx

	sess, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook validates the Stripe-Signature header against the
// endpoint's signing secret and returns the event envelope.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*ProviderEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	return &ProviderEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Payload: event.Data.Raw,
	}, nil
}

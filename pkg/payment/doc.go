// Package payment wraps the external payment provider behind a gateway
// guarded by a circuit breaker.
//
// The Provider interface covers two provider touchpoints: creating
// hosted checkout sessions and verifying inbound webhook signatures.
// The Gateway decorates the outbound call with a bounded timeout and a
// sliding-window breaker so a degraded provider degrades into a uniform
// maintenance error instead of cascading latency.
//
// Usage:
//
//	provider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
//	gateway := payment.NewGateway(provider, catalog,
//		payment.WithCallTimeout(10*time.Second),
//	)
//
//	session, err := gateway.Checkout(ctx, key, payment.CheckoutRequest{
//		Tier:          plan.TierPro,
//		CustomerEmail: "user@example.com",
//	})
//	switch {
//	case errors.Is(err, payment.ErrPaymentSystemUnavailable):
//		// breaker open, show the maintenance message
//	case errors.Is(err, payment.ErrPaymentFailed):
//		// provider rejected the call
//	}
package payment

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cogniq/billing/internal/metrics"
	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/tenant"
)

// CheckoutRequest is the caller's view of a checkout: pick a tier and
// say where the provider should send the customer afterwards.
type CheckoutRequest struct {
	Tier          plan.Tier
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Gateway fronts the payment provider with a circuit breaker and a
// bounded call timeout.
type Gateway struct {
	provider   Provider
	plans      *plan.Catalog
	breaker    *CircuitBreaker
	timeout    time.Duration
	log        *slog.Logger
	successURL string
	cancelURL  string
}

// GatewayOption configures the gateway.
type GatewayOption func(*Gateway)

// WithCallTimeout bounds each outbound provider call. A timeout counts
// as a breaker failure.
func WithCallTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithBreaker replaces the default breaker, e.g. to tune the window in
// tests.
func WithBreaker(cb *CircuitBreaker) GatewayOption {
	return func(g *Gateway) {
		if cb != nil {
			g.breaker = cb
		}
	}
}

// WithRedirectURLs sets the default success and cancel URLs used when a
// request leaves them empty.
func WithRedirectURLs(successURL, cancelURL string) GatewayOption {
	return func(g *Gateway) {
		g.successURL = successURL
		g.cancelURL = cancelURL
	}
}

func WithGatewayLogger(log *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGateway creates a payment gateway. Panics on nil dependencies to
// fail fast during initialization.
func NewGateway(provider Provider, plans *plan.Catalog, opts ...GatewayOption) *Gateway {
	if provider == nil {
		panic("payment: Provider is required")
	}
	if plans == nil {
		panic("payment: plan catalog is required")
	}
	g := &Gateway{
		provider: provider,
		plans:    plans,
		breaker:  NewCircuitBreaker(10, 0.5, 30*time.Second),
		timeout:  10 * time.Second,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Checkout opens a hosted checkout session for a paid tier.
//
// Free tiers are rejected with ErrNotPurchasable. While the breaker is
// open every call returns ErrPaymentSystemUnavailable without touching
// the network; the underlying provider diagnostics stay in the logs.
func (g *Gateway) Checkout(ctx context.Context, key tenant.Key, req CheckoutRequest) (*CheckoutSession, error) {
	p, err := g.plans.ByTier(req.Tier)
	if err != nil {
		return nil, errors.Join(ErrNotPurchasable, err)
	}
	if p.IsFree() {
		return nil, fmt.Errorf("%w: %s", ErrNotPurchasable, p.Tier)
	}

	if !g.breaker.Allow() {
		metrics.PaymentFailure(metrics.ReasonCircuitOpen)
		g.log.WarnContext(ctx, "checkout rejected, circuit open",
			slog.Any("user_id", key.UserID),
			slog.String("tier", string(req.Tier)),
		)
		return nil, ErrPaymentSystemUnavailable
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	session, err := g.provider.CreateCheckoutSession(callCtx, CheckoutParams{
		Key:           key,
		Plan:          p,
		CustomerEmail: req.CustomerEmail,
		SuccessURL:    firstNonEmpty(req.SuccessURL, g.successURL),
		CancelURL:     firstNonEmpty(req.CancelURL, g.cancelURL),
	})
	if err != nil {
		// A caller that hung up says nothing about provider health.
		// Deadline expiry still counts: the call budget is ours.
		if errors.Is(err, context.Canceled) {
			return nil, errors.Join(ErrPaymentFailed, err)
		}
		g.breaker.RecordFailure()
		metrics.PaymentFailure(metrics.ReasonProviderError)
		g.log.ErrorContext(ctx, "provider checkout call failed",
			slog.Any("error", err),
			slog.Any("user_id", key.UserID),
			slog.String("tier", string(req.Tier)),
			slog.String("circuit_state", g.breaker.State().String()),
		)
		return nil, errors.Join(ErrPaymentFailed, err)
	}

	g.breaker.RecordSuccess()
	metrics.PaymentSuccess(string(p.Tier))
	return session, nil
}

// VerifyWebhook delegates signature verification to the provider.
// Inbound deliveries bypass the breaker, which guards outbound calls
// only.
func (g *Gateway) VerifyWebhook(payload []byte, signature string) (*ProviderEvent, error) {
	return g.provider.VerifyWebhook(payload, signature)
}

// BreakerStats exposes breaker state for health reporting.
func (g *Gateway) BreakerStats() CircuitStats {
	return g.breaker.Stats()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cogniq/billing/pkg/correlation"
	"github.com/cogniq/billing/pkg/invoice"
	"github.com/cogniq/billing/pkg/ledger"
	"github.com/cogniq/billing/pkg/payment"
	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/ratelimit"
	"github.com/cogniq/billing/pkg/subscription"
	"github.com/cogniq/billing/pkg/usage"
	"github.com/cogniq/billing/pkg/webhook"
)

// Handler wires the billing services into HTTP routes.
type Handler struct {
	ledger    *ledger.Service
	subs      *subscription.Service
	gateway   *payment.Gateway
	processor *webhook.Processor
	plans     *plan.Catalog
	invoices  *invoice.Service
	usage     *usage.Service
	limiter   ratelimit.Limiter
	log       *slog.Logger
}

// Option configures the handler.
type Option func(*Handler)

func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithRateLimiter throttles authenticated endpoints per billing
// identity. No limiter means no throttling.
func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

// New creates the billing HTTP handler. Panics on nil dependencies to
// fail fast during initialization.
func New(
	ledgerSvc *ledger.Service,
	subs *subscription.Service,
	gateway *payment.Gateway,
	processor *webhook.Processor,
	plans *plan.Catalog,
	invoices *invoice.Service,
	usageSvc *usage.Service,
	opts ...Option,
) *Handler {
	if ledgerSvc == nil || subs == nil || gateway == nil || processor == nil || plans == nil || invoices == nil || usageSvc == nil {
		panic("handler: all services are required")
	}
	h := &Handler{
		ledger:    ledgerSvc,
		subs:      subs,
		gateway:   gateway,
		processor: processor,
		plans:     plans,
		invoices:  invoices,
		usage:     usageSvc,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes assembles the billing router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(correlation.Middleware)

	r.Route("/api/billing", func(r chi.Router) {
		// Webhook authenticates with the provider signature, not the
		// gateway identity.
		r.Post("/webhooks", h.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(requireIdentity)
			if h.limiter != nil {
				r.Use(ratelimit.Middleware(h.limiter, identityKey))
			}

			r.Get("/credits", h.getBalance)
			r.Post("/credits/consume", h.consumeCredits)
			r.Get("/credits/transactions", h.listTransactions)

			r.Get("/plans", h.listPlans)

			r.Get("/subscription", h.getCurrentSubscription)
			r.Get("/subscription/history", h.listSubscriptions)
			r.Post("/subscription", h.subscribe)
			r.Post("/subscription/cancel", h.cancelAtPeriodEnd)

			r.Post("/checkout/session", h.createCheckoutSession)

			r.Get("/invoices", h.listInvoices)
			r.Get("/invoices/{invoiceID}", h.getInvoice)

			r.Get("/usage", h.getUsageSummary)
			r.Post("/usage", h.recordUsage)
		})
	})

	// Service-to-service only; not exposed via the gateway.
	r.Get("/internal/org/{orgID}/subscription-limits", h.getSubscriptionLimits)

	return r
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	return true
}

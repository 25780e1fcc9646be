package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/cogniq/billing/internal/metrics"
	"github.com/cogniq/billing/pkg/invoice"
	"github.com/cogniq/billing/pkg/notification"
	"github.com/cogniq/billing/pkg/payment"
	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/subscription"
	"github.com/cogniq/billing/pkg/tenant"
	"github.com/cogniq/billing/pkg/userdir"
)

// Verifier authenticates raw deliveries. Satisfied by *payment.Gateway
// and by payment.Provider implementations.
type Verifier interface {
	VerifyWebhook(payload []byte, signature string) (*payment.ProviderEvent, error)
}

// Subscriptions is the slice of the subscription service the processor
// drives. Satisfied by *subscription.Service.
type Subscriptions interface {
	CreateFromCheckout(ctx context.Context, key tenant.Key, tier plan.Tier, providerCustomerID, providerSubID string) (*subscription.Subscription, error)
	RenewOnInvoicePaid(ctx context.Context, providerSubID, providerInvoiceID string) (*subscription.Subscription, error)
	CancelByProviderID(ctx context.Context, providerSubID string) (*subscription.Subscription, error)
}

// InvoiceMirror records paid provider invoices locally. Satisfied by
// *invoice.Service.
type InvoiceMirror interface {
	RecordPaid(ctx context.Context, params invoice.RecordParams) error
}

// Directory resolves user contact details for notifications. Satisfied
// by *userdir.Client.
type Directory interface {
	GetUser(ctx context.Context, userID uuid.UUID) userdir.User
}

// UnitOfWork scopes one event's state changes to a single atomic
// commit. The Postgres implementation opens a transaction and carries
// it in ctx; NewNoopUnitOfWork just invokes fn for in-memory stores.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewNoopUnitOfWork returns a UnitOfWork without transactional scope.
func NewNoopUnitOfWork() UnitOfWork {
	return noopUnitOfWork{}
}

// Processor verifies, classifies, deduplicates, and applies provider
// event deliveries.
type Processor struct {
	verifier Verifier
	subs     Subscriptions
	idem     IdempotencyStore
	uow      UnitOfWork
	invoices InvoiceMirror
	notifier notification.Sender
	users    Directory
	log      *slog.Logger
}

// ProcessorOption configures the processor.
type ProcessorOption func(*Processor)

func WithProcessorLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if log != nil {
			p.log = log
		}
	}
}

// WithUnitOfWork scopes each event's transitions to an atomic commit.
func WithUnitOfWork(uow UnitOfWork) ProcessorOption {
	return func(p *Processor) {
		if uow != nil {
			p.uow = uow
		}
	}
}

// WithInvoiceMirror records paid invoices locally as part of the
// invoice event's unit of work.
func WithInvoiceMirror(mirror InvoiceMirror) ProcessorOption {
	return func(p *Processor) {
		p.invoices = mirror
	}
}

// WithNotifier dispatches user notifications after an event commits.
// The directory resolves recipient emails; lookups degrade to no
// notification.
func WithNotifier(sender notification.Sender, directory Directory) ProcessorOption {
	return func(p *Processor) {
		if sender != nil {
			p.notifier = sender
		}
		p.users = directory
	}
}

// NewProcessor creates a webhook processor. Panics on nil dependencies
// to fail fast during initialization.
func NewProcessor(verifier Verifier, subs Subscriptions, idem IdempotencyStore, opts ...ProcessorOption) *Processor {
	if verifier == nil {
		panic("webhook: Verifier is required")
	}
	if subs == nil {
		panic("webhook: Subscriptions is required")
	}
	if idem == nil {
		panic("webhook: IdempotencyStore is required")
	}
	p := &Processor{
		verifier: verifier,
		subs:     subs,
		idem:     idem,
		uow:      noopUnitOfWork{},
		notifier: notification.NewNoopSender(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process handles one raw delivery.
//
// A nil return acknowledges the delivery. Signature failures and
// transient apply errors return non-nil so the caller rejects the
// delivery and the provider redelivers; malformed payloads and
// unrecognized types are acknowledged since redelivering them cannot
// change the outcome.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string) error {
	pe, err := p.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		metrics.WebhookEvent("unknown", "invalid_signature")
		p.log.WarnContext(ctx, "webhook signature verification failed", slog.Any("error", err))
		return err
	}

	event, err := Classify(pe)
	if err != nil {
		metrics.WebhookEvent(pe.Type, "malformed")
		p.log.WarnContext(ctx, "dropping malformed webhook event",
			slog.String("event_id", pe.ID),
			slog.String("event_type", pe.Type),
			slog.Any("error", err),
		)
		return nil
	}
	if !event.Handled() {
		metrics.WebhookEvent(pe.Type, "ignored")
		p.log.DebugContext(ctx, "ignoring unhandled webhook event type",
			slog.String("event_id", pe.ID),
			slog.String("event_type", pe.Type),
		)
		return nil
	}

	seen, err := p.idem.Seen(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("webhook: idempotency check: %w", err)
	}
	if seen {
		metrics.WebhookEvent(pe.Type, "duplicate")
		p.log.InfoContext(ctx, "skipping already processed webhook event",
			slog.String("event_id", event.ID),
			slog.String("event_type", pe.Type),
		)
		return nil
	}

	var applied *subscription.Subscription
	if err := p.uow.Run(ctx, func(ctx context.Context) error {
		applied, err = p.apply(ctx, event)
		return err
	}); err != nil {
		metrics.WebhookEvent(pe.Type, "failed")
		return err
	}

	// Marking after commit means a crash in between causes one
	// redelivered apply; each transition tolerates that.
	if err := p.idem.Mark(ctx, event.ID); err != nil {
		p.log.ErrorContext(ctx, "failed to mark webhook event processed",
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)
	}

	metrics.WebhookEvent(pe.Type, "processed")
	p.notify(ctx, event, applied)
	return nil
}

func (p *Processor) apply(ctx context.Context, event *Event) (*subscription.Subscription, error) {
	switch {
	case event.Checkout != nil:
		return p.applyCheckout(ctx, event)
	case event.Invoice != nil:
		return p.applyInvoice(ctx, event)
	case event.Subscription != nil:
		return p.applyCancellation(ctx, event)
	default:
		return nil, nil
	}
}

func (p *Processor) applyCheckout(ctx context.Context, event *Event) (*subscription.Subscription, error) {
	c := event.Checkout
	if !c.Paid {
		p.log.InfoContext(ctx, "checkout session completed without payment, skipping",
			slog.String("event_id", event.ID),
			slog.String("session_id", c.SessionID),
		)
		return nil, nil
	}

	key := c.Key
	if key.OrgID == nil && p.users != nil {
		// Session metadata carries the org only when checkout started
		// from an org context; the directory knows either way.
		if user := p.users.GetUser(ctx, key.UserID); user.OrgID != nil {
			key = tenant.NewKey(key.UserID, user.OrgID)
		}
	}

	sub, err := p.subs.CreateFromCheckout(ctx, key, c.Tier, c.ProviderCustomerID, c.ProviderSubID)
	if errors.Is(err, subscription.ErrAlreadySubscribed) {
		// Redelivery after a crash between apply and mark.
		p.log.InfoContext(ctx, "subscription already exists for checkout, skipping",
			slog.String("event_id", event.ID),
			slog.String("provider_sub_id", c.ProviderSubID),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("webhook: apply checkout: %w", err)
	}

	p.log.InfoContext(ctx, "checkout completed",
		slog.String("event_id", event.ID),
		slog.Any("subscription_id", sub.ID),
		slog.String("tier", string(c.Tier)),
	)
	return sub, nil
}

func (p *Processor) applyInvoice(ctx context.Context, event *Event) (*subscription.Subscription, error) {
	inv := event.Invoice
	sub, err := p.subs.RenewOnInvoicePaid(ctx, inv.ProviderSubID, inv.InvoiceID)
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		// Invoices for subscriptions this system never tracked are
		// acknowledged; redelivery would hit the same missing row.
		p.log.WarnContext(ctx, "invoice for unknown subscription, skipping",
			slog.String("event_id", event.ID),
			slog.String("invoice_id", inv.InvoiceID),
			slog.String("provider_sub_id", inv.ProviderSubID),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("webhook: apply invoice %s: %w", inv.InvoiceID, err)
	}

	if p.invoices != nil {
		err := p.invoices.RecordPaid(ctx, invoice.RecordParams{
			Key:               tenant.NewKey(sub.UserID, sub.OrgID),
			ProviderInvoiceID: inv.InvoiceID,
			ProviderSubID:     inv.ProviderSubID,
			AmountCents:       inv.AmountCents,
			Currency:          inv.Currency,
			PeriodStart:       sub.CurrentPeriodStart,
			PeriodEnd:         sub.CurrentPeriodEnd,
		})
		if err != nil {
			return nil, fmt.Errorf("webhook: mirror invoice %s: %w", inv.InvoiceID, err)
		}
	}

	p.log.InfoContext(ctx, "invoice paid",
		slog.String("event_id", event.ID),
		slog.String("invoice_id", inv.InvoiceID),
		slog.Any("subscription_id", sub.ID),
		slog.Int64("amount_cents", inv.AmountCents),
	)
	return sub, nil
}

func (p *Processor) applyCancellation(ctx context.Context, event *Event) (*subscription.Subscription, error) {
	del := event.Subscription
	sub, err := p.subs.CancelByProviderID(ctx, del.ProviderSubID)
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		// Deletions for subscriptions this system never tracked are
		// acknowledged; retrying cannot produce a row to cancel.
		p.log.WarnContext(ctx, "cancellation for unknown subscription, skipping",
			slog.String("event_id", event.ID),
			slog.String("provider_sub_id", del.ProviderSubID),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("webhook: apply cancellation: %w", err)
	}

	p.log.InfoContext(ctx, "subscription deleted by provider",
		slog.String("event_id", event.ID),
		slog.Any("subscription_id", sub.ID),
	)
	return sub, nil
}

// notify dispatches post-commit notifications. Failures never affect
// event processing.
func (p *Processor) notify(ctx context.Context, event *Event, sub *subscription.Subscription) {
	if sub == nil || p.users == nil {
		return
	}

	var templateID string
	params := map[string]string{"tier": string(sub.Tier)}
	switch {
	case event.Invoice != nil:
		templateID = notification.TemplatePaymentConfirmed
		params["amount_cents"] = strconv.FormatInt(event.Invoice.AmountCents, 10)
		params["currency"] = event.Invoice.Currency
	case event.Subscription != nil:
		templateID = notification.TemplateSubscriptionCanceled
	default:
		return
	}

	user := p.users.GetUser(ctx, sub.UserID)
	p.notifier.Send(ctx, templateID, user.Email, params)
}

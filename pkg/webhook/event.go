package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/payment"
	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/tenant"
)

// EventType identifies the provider event types the processor handles.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.session.completed"
	EventInvoicePaid         EventType = "invoice.paid"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
)

// CheckoutCompleted is a finished hosted checkout. The tenant key and
// tier travel in the session metadata written at checkout creation.
type CheckoutCompleted struct {
	SessionID          string
	ProviderCustomerID string
	ProviderSubID      string
	Key                tenant.Key
	Tier               plan.Tier
	Paid               bool
}

// InvoicePaid is a settled subscription invoice, the signal to grant
// the billing period's credit allotment.
type InvoicePaid struct {
	InvoiceID     string
	ProviderSubID string
	AmountCents   int64
	Currency      string
}

// SubscriptionDeleted is a provider-side subscription termination.
type SubscriptionDeleted struct {
	ProviderSubID string
}

// Event is the classified form of a provider delivery. Exactly one of
// the payload pointers is set for handled types; all are nil for
// unrecognized types.
type Event struct {
	ID   string
	Type EventType

	Checkout     *CheckoutCompleted
	Invoice      *InvoicePaid
	Subscription *SubscriptionDeleted
}

// Handled reports whether the event type maps to a state transition.
func (e *Event) Handled() bool {
	return e.Checkout != nil || e.Invoice != nil || e.Subscription != nil
}

// Classify decodes a verified provider event into its typed form.
// Unrecognized types return an event with no payload set and a nil
// error; recognized types with missing required fields return
// ErrMalformedEvent.
func Classify(pe *payment.ProviderEvent) (*Event, error) {
	event := &Event{ID: pe.ID, Type: EventType(pe.Type)}

	switch event.Type {
	case EventCheckoutCompleted:
		checkout, err := decodeCheckout(pe.Payload)
		if err != nil {
			return nil, err
		}
		event.Checkout = checkout

	case EventInvoicePaid:
		invoice, err := decodeInvoice(pe.Payload)
		if err != nil {
			return nil, err
		}
		event.Invoice = invoice

	case EventSubscriptionDeleted:
		sub, err := decodeSubscriptionDeleted(pe.Payload)
		if err != nil {
			return nil, err
		}
		event.Subscription = sub
	}

	return event, nil
}

func decodeCheckout(payload json.RawMessage) (*CheckoutCompleted, error) {
	var raw struct {
		ID            string            `json:"id"`
		Customer      string            `json:"customer"`
		Subscription  string            `json:"subscription"`
		PaymentStatus string            `json:"payment_status"`
		Metadata      map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.ID == "" || raw.Subscription == "" {
		return nil, fmt.Errorf("%w: checkout session missing id or subscription", ErrMalformedEvent)
	}

	userID, err := uuid.Parse(raw.Metadata["user_id"])
	if err != nil {
		return nil, fmt.Errorf("%w: checkout session missing user_id metadata", ErrMalformedEvent)
	}
	var orgID *uuid.UUID
	if v := raw.Metadata["org_id"]; v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid org_id metadata: %q", ErrMalformedEvent, v)
		}
		orgID = &id
	}
	tier, err := plan.ParseTier(raw.Metadata["plan_tier"])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	return &CheckoutCompleted{
		SessionID:          raw.ID,
		ProviderCustomerID: raw.Customer,
		ProviderSubID:      raw.Subscription,
		Key:                tenant.NewKey(userID, orgID),
		Tier:               tier,
		Paid:               raw.PaymentStatus == "paid",
	}, nil
}

func decodeInvoice(payload json.RawMessage) (*InvoicePaid, error) {
	var raw struct {
		ID           string `json:"id"`
		Subscription string `json:"subscription"`
		AmountPaid   int64  `json:"amount_paid"`
		Currency     string `json:"currency"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.ID == "" || raw.Subscription == "" {
		return nil, fmt.Errorf("%w: invoice missing id or subscription", ErrMalformedEvent)
	}
	return &InvoicePaid{
		InvoiceID:     raw.ID,
		ProviderSubID: raw.Subscription,
		AmountCents:   raw.AmountPaid,
		Currency:      raw.Currency,
	}, nil
}

func decodeSubscriptionDeleted(payload json.RawMessage) (*SubscriptionDeleted, error) {
	var raw struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("%w: subscription missing id", ErrMalformedEvent)
	}
	return &SubscriptionDeleted{ProviderSubID: raw.ID}, nil
}

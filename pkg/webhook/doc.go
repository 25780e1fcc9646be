// Package webhook turns payment-provider event deliveries into
// subscription and ledger state transitions.
//
// Deliveries arrive at-least-once and out of order. The processor
// verifies the signature, classifies the event into one of the handled
// types, filters redeliveries through an idempotency store, and applies
// the state change inside a unit of work. Every handled transition is
// itself idempotent, so an event that slips past the idempotency store
// (e.g. a crash between apply and mark) converges to the same state on
// redelivery.
//
// Malformed events and unrecognized types are logged and acknowledged
// so the provider stops retrying them; only signature failures are
// rejected.
package webhook

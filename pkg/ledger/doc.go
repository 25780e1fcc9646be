// Package ledger owns the per-tenant credit balance and its append-only
// transaction log.
//
// Every mutation goes through a Store.Mutate call that holds exclusive
// access to the tenant's balance row for the whole read-check-write
// sequence, so concurrent consumes can never drive the available balance
// negative and concurrent provisions can never lose an update. Mutations
// on different tenants do not block each other.
//
// Each mutation appends exactly one immutable Transaction carrying the
// signed amount, the correlation id of the triggering job, and the
// payment-provider invoice reference where applicable. The log is the
// audit trail reconciling ledger state with external truth.
package ledger

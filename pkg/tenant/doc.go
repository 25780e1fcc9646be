// Package tenant resolves the billing entity for a request.
//
// Billing is keyed by organization when the request carries an org id,
// falling back to the individual user otherwise. A Key is resolved once
// per request, stored in the context, and reused unchanged for every
// read and write in the call chain so balances cannot fork between the
// two identities.
package tenant

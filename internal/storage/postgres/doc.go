// Package postgres provides pgx-backed implementations of the domain
// stores plus a transactional unit of work.
//
// Every store accepts a context that may carry an open transaction
// (see NewUnitOfWork); queries then run inside it, so all state changes
// of one webhook event commit or roll back together. The ledger store
// serializes balance mutations with a SELECT ... FOR UPDATE row lock.
package postgres

// Package correlation propagates the correlation id that ties a billing
// operation back to the external job that triggered it.
//
// The Middleware reuses a client-supplied "X-Correlation-Id" header after
// validation, or generates a UUIDv4 when the header is missing or invalid.
// The id travels in the request context, is echoed in the response header,
// and ends up on every persisted ledger transaction so a credit deduction
// can be traced to the originating job.
package correlation

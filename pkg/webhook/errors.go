package webhook

import "errors"

var (
	// ErrMalformedEvent marks a recognized event type whose payload is
	// missing required fields. The processor logs and drops these.
	ErrMalformedEvent = errors.New("malformed webhook event")

	// ErrIdempotencyUnavailable is returned when the idempotency store
	// cannot be reached.
	ErrIdempotencyUnavailable = errors.New("idempotency store unavailable")
)

package payment

import "errors"

var (
	// ErrNotPurchasable is returned when checkout is requested for a tier
	// that has no paid plan (e.g. the free tier).
	ErrNotPurchasable = errors.New("plan tier is not purchasable")

	// ErrPaymentSystemUnavailable is returned while the circuit breaker
	// is open. It carries no provider detail so every caller sees the
	// same maintenance condition.
	ErrPaymentSystemUnavailable = errors.New("payment system is temporarily unavailable for maintenance")

	// ErrPaymentFailed is returned when the provider call fails while the
	// breaker is closed or half open. The provider's message is attached.
	ErrPaymentFailed = errors.New("payment provider call failed")

	// ErrInvalidSignature is returned when a webhook payload fails
	// signature verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

package ledger

import "errors"

var (
	// ErrInsufficientCredits is surfaced to callers as a distinct
	// "payment required" signal so UIs can prompt an upgrade.
	ErrInsufficientCredits = errors.New("insufficient credits")

	ErrInvalidAmount   = errors.New("amount must be at least 1")
	ErrInvalidCredits  = errors.New("credits must not be negative")
	ErrBalanceNotFound = errors.New("credit balance not found")
)

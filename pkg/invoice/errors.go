package invoice

import "errors"

var (
	// ErrInvoiceNotFound is returned when no invoice matches the lookup.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrDuplicateInvoice is returned when a provider invoice id is
	// mirrored twice.
	ErrDuplicateInvoice = errors.New("invoice already recorded")
)

package usage

import "errors"

var (
	// ErrUnknownUsageType is returned for a usage type outside the
	// metered set.
	ErrUnknownUsageType = errors.New("unknown usage type")

	// ErrInvalidQuantity is returned when a record's quantity is not
	// positive.
	ErrInvalidQuantity = errors.New("usage quantity must be positive")
)

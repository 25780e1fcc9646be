package invoice

import (
	"time"

	"github.com/google/uuid"
)

// Status of a mirrored invoice.
type Status string

const (
	StatusPaid Status = "paid"
	StatusVoid Status = "void"
)

// Invoice is a local mirror of one provider invoice.
type Invoice struct {
	ID                uuid.UUID
	OrgID             *uuid.UUID
	UserID            uuid.UUID
	ProviderInvoiceID string
	ProviderSubID     string
	AmountCents       int64
	Currency          string
	Status            Status
	PeriodStart       time.Time
	PeriodEnd         time.Time
	PaidAt            time.Time
	CreatedAt         time.Time
}

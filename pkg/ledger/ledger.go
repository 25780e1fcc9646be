package ledger

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a ledger mutation.
type TransactionType string

const (
	TypeConsume              TransactionType = "CONSUME"
	TypeSubscriptionPurchase TransactionType = "SUBSCRIPTION_PURCHASE"
	TypeRefund               TransactionType = "REFUND"
	TypeAdjustment           TransactionType = "ADJUSTMENT"
)

// Balance is the consumable credit balance of one billing tenant.
// Used only grows; Total only grows through provisioning. Balances are
// created lazily on the first mutation and never deleted.
type Balance struct {
	ID        uuid.UUID
	OrgID     *uuid.UUID
	UserID    uuid.UUID
	Total     int
	Used      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available returns the credits still consumable. Never negative.
func (b Balance) Available() int {
	if avail := b.Total - b.Used; avail > 0 {
		return avail
	}
	return 0
}

// Transaction is one immutable entry of the audit log. Amount is signed:
// negative for consumption, positive for provisioning.
type Transaction struct {
	ID                uuid.UUID
	OrgID             *uuid.UUID
	UserID            uuid.UUID
	Amount            int64
	Currency          string
	Type              TransactionType
	CorrelationID     string // traces a consumption back to the triggering job
	ProviderInvoiceID string // payment-provider invoice for provisioning entries
	CreatedAt         time.Time
}

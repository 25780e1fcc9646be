package tenant

import "github.com/google/uuid"

// Key identifies the billing entity: the organization when known,
// otherwise the individual user. UserID is always set; OrgID is nil for
// accounts without an organization context (legacy per-user billing).
type Key struct {
	OrgID  *uuid.UUID
	UserID uuid.UUID
}

// NewKey builds a Key from a user id and an optional org id.
// A zero-valued org id is treated as absent.
func NewKey(userID uuid.UUID, orgID *uuid.UUID) Key {
	if orgID != nil && *orgID == uuid.Nil {
		orgID = nil
	}
	return Key{OrgID: orgID, UserID: userID}
}

// UserKey builds a Key for per-user billing with no organization.
func UserKey(userID uuid.UUID) Key {
	return Key{UserID: userID}
}

// OrgKey builds an org-scoped Key.
func OrgKey(orgID, userID uuid.UUID) Key {
	return Key{OrgID: &orgID, UserID: userID}
}

// BillingID returns the id ledger and subscription rows are keyed on:
// the org id when present, the user id otherwise.
func (k Key) BillingID() uuid.UUID {
	if k.OrgID != nil {
		return *k.OrgID
	}
	return k.UserID
}

// IsOrg reports whether billing is scoped to an organization.
func (k Key) IsOrg() bool {
	return k.OrgID != nil
}

// IsZero reports whether the key carries no identity at all.
func (k Key) IsZero() bool {
	return k.OrgID == nil && k.UserID == uuid.Nil
}

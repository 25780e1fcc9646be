package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/tenant"
)

// Identity headers injected by the API gateway after JWT validation.
const (
	headerUserID = "X-User-Id"
	headerOrgID  = "X-Org-Id"
)

// requireIdentity resolves the request's billing key from the gateway
// identity headers and stores it in the context. Requests without a
// valid user id are rejected.
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get(headerUserID))
		if err != nil {
			respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing or invalid user identity")
			return
		}

		var orgID *uuid.UUID
		if v := r.Header.Get(headerOrgID); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				respondError(w, r, http.StatusUnauthorized, "unauthorized", "invalid org identity")
				return
			}
			orgID = &id
		}

		ctx := tenant.WithContext(r.Context(), tenant.NewKey(userID, orgID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityKey buckets rate limits the same way balances are keyed: by
// the org when present, the user otherwise.
func identityKey(r *http.Request) string {
	if v := r.Header.Get(headerOrgID); v != "" {
		return "org:" + v
	}
	if v := r.Header.Get(headerUserID); v != "" {
		return "user:" + v
	}
	return ""
}

// keyFrom returns the billing key stored by requireIdentity.
func keyFrom(r *http.Request) tenant.Key {
	key, _ := tenant.FromContext(r.Context())
	return key
}

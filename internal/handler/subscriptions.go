package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/subscription"
	"github.com/cogniq/billing/pkg/tenant"
)

type subscriptionResponse struct {
	ID                 uuid.UUID  `json:"id"`
	PlanID             uuid.UUID  `json:"plan_id"`
	Tier               string     `json:"tier"`
	Status             string     `json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

func toSubscriptionResponse(sub *subscription.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:                 sub.ID,
		PlanID:             sub.PlanID,
		Tier:               string(sub.Tier),
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CancelledAt:        sub.CancelledAt,
	}
}

func (h *Handler) getCurrentSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subs.Current(r.Context(), keyFrom(r))
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.List(r.Context(), keyFrom(r))
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}

	out := make([]subscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, toSubscriptionResponse(&subs[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

type subscribeRequest struct {
	PlanID uuid.UUID `json:"plan_id"`
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sub, err := h.subs.Subscribe(r.Context(), keyFrom(r), req.PlanID)
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) cancelAtPeriodEnd(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subs.ScheduleCancelAtPeriodEnd(r.Context(), keyFrom(r))
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// getSubscriptionLimits serves the auth service's seat limit check.
func (h *Handler) getSubscriptionLimits(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_request", "invalid org id")
		return
	}

	// The caller knows only the org, so any member key resolves the
	// org's subscription.
	limit := h.subs.SeatLimit(r.Context(), tenant.OrgKey(orgID, uuid.Nil))
	respondJSON(w, http.StatusOK, map[string]int{"maxUsers": limit})
}

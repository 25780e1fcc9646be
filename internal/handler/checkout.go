package handler

import (
	"net/http"

	"github.com/cogniq/billing/pkg/payment"
	"github.com/cogniq/billing/pkg/plan"
)

type checkoutSessionRequest struct {
	PlanTier   string `json:"plan_tier"`
	SuccessURL string `json:"success_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
}

type checkoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tier, err := plan.ParseTier(req.PlanTier)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_request", "unknown plan tier")
		return
	}

	session, err := h.gateway.Checkout(r.Context(), keyFrom(r), payment.CheckoutRequest{
		Tier:       tier,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, checkoutSessionResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	})
}

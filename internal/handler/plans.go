package handler

import (
	"net/http"

	"github.com/google/uuid"
)

type planResponse struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Tier            string           `json:"tier"`
	PriceCents      int64            `json:"price_cents"`
	PriceDisplay    string           `json:"price_display"`
	Currency        string           `json:"currency"`
	Interval        string           `json:"interval"`
	CreditAllotment int              `json:"credit_allotment"`
	SeatLimit       int              `json:"seat_limit"`
	Limits          map[string]int64 `json:"limits,omitempty"`
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.plans.ListActive()
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{
			ID:              p.ID,
			Name:            p.Name,
			Tier:            string(p.Tier),
			PriceCents:      p.PriceCents,
			PriceDisplay:    p.PriceDisplay(),
			Currency:        p.Currency,
			Interval:        string(p.Interval),
			CreditAllotment: p.CreditAllotment,
			SeatLimit:       p.SeatLimit,
			Limits:          p.Limits,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

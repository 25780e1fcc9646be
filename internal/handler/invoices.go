package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/invoice"
)

type invoiceResponse struct {
	ID                uuid.UUID `json:"id"`
	ProviderInvoiceID string    `json:"provider_invoice_id"`
	AmountCents       int64     `json:"amount_cents"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
	PaidAt            time.Time `json:"paid_at"`
}

func toInvoiceResponse(inv invoice.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:                inv.ID,
		ProviderInvoiceID: inv.ProviderInvoiceID,
		AmountCents:       inv.AmountCents,
		Currency:          inv.Currency,
		Status:            string(inv.Status),
		PeriodStart:       inv.PeriodStart,
		PeriodEnd:         inv.PeriodEnd,
		PaidAt:            inv.PaidAt,
	}
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoices.List(r.Context(), keyFrom(r))
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}

	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_request", "invalid invoice id")
		return
	}

	inv, err := h.invoices.Get(r.Context(), id, keyFrom(r))
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toInvoiceResponse(*inv))
}

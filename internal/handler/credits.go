package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cogniq/billing/pkg/correlation"
	"github.com/cogniq/billing/pkg/ledger"
)

type balanceResponse struct {
	TotalCredits     int `json:"total_credits"`
	UsedCredits      int `json:"used_credits"`
	AvailableCredits int `json:"available_credits"`
}

func toBalanceResponse(b ledger.Balance) balanceResponse {
	return balanceResponse{
		TotalCredits:     b.Total,
		UsedCredits:      b.Used,
		AvailableCredits: b.Available(),
	}
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.GetBalance(r.Context(), keyFrom(r))
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toBalanceResponse(balance))
}

type consumeRequest struct {
	Amount        int    `json:"amount"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (h *Handler) consumeCredits(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// The body's correlation id wins over the header so the orchestrator
	// can thread its job id through.
	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = correlation.FromContext(r.Context())
	}

	balance, err := h.ledger.Consume(r.Context(), keyFrom(r), req.Amount, correlationID)
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toBalanceResponse(balance))
}

type transactionResponse struct {
	ID                uuid.UUID `json:"id"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	Type              string    `json:"type"`
	CorrelationID     string    `json:"correlation_id,omitempty"`
	ProviderInvoiceID string    `json:"provider_invoice_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	transactions, err := h.ledger.RecentTransactions(r.Context(), keyFrom(r), limit)
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, transactionResponse{
			ID:                t.ID,
			Amount:            t.Amount,
			Currency:          t.Currency,
			Type:              string(t.Type),
			CorrelationID:     t.CorrelationID,
			ProviderInvoiceID: t.ProviderInvoiceID,
			CreatedAt:         t.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

package handler

import (
	"io"
	"net/http"
)

const signatureHeader = "Stripe-Signature"

// handleWebhook receives raw provider event deliveries. Anything the
// processor acknowledges returns 200 so the provider stops retrying;
// signature failures and transient apply errors return 400 to trigger
// redelivery.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get(signatureHeader)
	if signature == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_signature", "missing signature header")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_request", "unreadable payload")
		return
	}

	if err := h.processor.Process(r.Context(), payload, signature); err != nil {
		respondError(w, r, http.StatusBadRequest, "webhook_failed", "event not processed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

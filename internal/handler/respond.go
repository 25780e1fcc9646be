package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cogniq/billing/pkg/invoice"
	"github.com/cogniq/billing/pkg/ledger"
	"github.com/cogniq/billing/pkg/payment"
	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/subscription"
	"github.com/cogniq/billing/pkg/usage"
)

// requests larger than this are rejected outright
const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// errorBody is the error envelope shared by all endpoints.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, _ *http.Request, status int, code, message string) {
	respondJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// respondDomainError maps domain sentinels onto the HTTP error
// taxonomy. Unmapped errors become opaque 500s; their detail goes to
// the log, not the client.
func respondDomainError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, code, message := classifyError(err)
	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		message = "internal error"
	}
	respondError(w, r, status, code, message)
}

func classifyError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "insufficient_credits", "insufficient credits, upgrade your plan"
	case errors.Is(err, subscription.ErrAlreadySubscribed):
		return http.StatusConflict, "conflict", "an active subscription already exists"
	case errors.Is(err, subscription.ErrNotCancellable):
		return http.StatusConflict, "conflict", "subscription is not cancellable"
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		return http.StatusNotFound, "not_found", "no matching subscription"
	case errors.Is(err, invoice.ErrInvoiceNotFound):
		return http.StatusNotFound, "not_found", "no matching invoice"
	case errors.Is(err, plan.ErrPlanNotFound), errors.Is(err, plan.ErrUnknownTier):
		return http.StatusNotFound, "not_found", "no matching plan"
	case errors.Is(err, payment.ErrNotPurchasable):
		return http.StatusBadRequest, "not_purchasable", "plan tier cannot be purchased"
	case errors.Is(err, payment.ErrPaymentSystemUnavailable):
		// Uniform maintenance message regardless of the provider fault.
		return http.StatusServiceUnavailable, "payment_system_maintenance", "Payment System Maintenance. Please try again later."
	case errors.Is(err, payment.ErrPaymentFailed):
		return http.StatusBadGateway, "payment_failed", "payment provider call failed"
	case errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest, "invalid_signature", "webhook signature verification failed"
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidCredits),
		errors.Is(err, usage.ErrUnknownUsageType),
		errors.Is(err, usage.ErrInvalidQuantity):
		return http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", "request timed out"
	default:
		return http.StatusInternalServerError, "internal_error", ""
	}
}

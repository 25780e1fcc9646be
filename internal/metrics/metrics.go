// Package metrics registers the billing service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure reasons recorded on payment_failure_total.
const (
	ReasonInsufficientCredits = "insufficient_credits"
	ReasonCircuitOpen         = "circuit_open"
	ReasonProviderError       = "provider_error"
)

var (
	paymentFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failure_total",
		Help: "Payment pipeline failures by reason.",
	}, []string{"reason"})

	paymentSuccessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Successful payments by plan tier.",
	}, []string{"plan_tier"})

	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Processed provider webhook events by type and outcome.",
	}, []string{"type", "outcome"})
)

// PaymentFailure increments payment_failure_total for the given reason.
func PaymentFailure(reason string) {
	paymentFailureTotal.WithLabelValues(reason).Inc()
}

// PaymentSuccess increments payment_success_total for the given tier.
func PaymentSuccess(planTier string) {
	paymentSuccessTotal.WithLabelValues(planTier).Inc()
}

// WebhookEvent records one processed webhook event. Outcome is one of
// "processed", "duplicate", "ignored", "malformed", "failed", or
// "invalid_signature".
func WebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

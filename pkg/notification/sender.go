package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Template ids understood by the notification service.
const (
	TemplatePaymentConfirmed     = "billing.payment_confirmed"
	TemplateSubscriptionCanceled = "billing.subscription_canceled"
	TemplateCreditsLow           = "billing.credits_low"
)

// Sender dispatches a templated notification to a recipient.
type Sender interface {
	Send(ctx context.Context, templateID, recipient string, params map[string]string)
}

// httpSender posts notifications to the notification service's internal
// endpoint.
type httpSender struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// SenderOption configures the HTTP sender.
type SenderOption func(*httpSender)

func WithHTTPClient(c *http.Client) SenderOption {
	return func(s *httpSender) {
		if c != nil {
			s.http = c
		}
	}
}

func WithLogger(log *slog.Logger) SenderOption {
	return func(s *httpSender) {
		if log != nil {
			s.log = log
		}
	}
}

// NewHTTPSender creates a sender posting to the notification service.
// Panics on an empty base URL.
func NewHTTPSender(baseURL string, opts ...SenderOption) Sender {
	if baseURL == "" {
		panic("notification: base URL is required")
	}
	s := &httpSender{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts the notification. A recipient is required; anything that
// goes wrong is logged and dropped.
func (s *httpSender) Send(ctx context.Context, templateID, recipient string, params map[string]string) {
	if recipient == "" {
		s.log.DebugContext(ctx, "notification with no recipient dropped",
			slog.String("template_id", templateID),
		)
		return
	}

	body, err := json.Marshal(map[string]any{
		"template_id": templateID,
		"recipient":   recipient,
		"params":      params,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "notification payload", slog.Any("error", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/internal/notifications", bytes.NewReader(body))
	if err != nil {
		s.log.ErrorContext(ctx, "notification request", slog.Any("error", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.WarnContext(ctx, "notification dispatch failed",
			slog.String("template_id", templateID),
			slog.Any("error", err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		s.log.WarnContext(ctx, "notification service rejected dispatch",
			slog.String("template_id", templateID),
			slog.Int("status", resp.StatusCode),
		)
	}
}

type noopSender struct{}

func (noopSender) Send(context.Context, string, string, map[string]string) {}

// NewNoopSender returns a Sender that discards everything.
func NewNoopSender() Sender {
	return noopSender{}
}

package handler

import (
	"net/http"
	"time"

	"github.com/cogniq/billing/pkg/usage"
)

type usageItemResponse struct {
	Type  string `json:"type"`
	Used  int64  `json:"used"`
	Limit int64  `json:"limit"`
}

type usageSummaryResponse struct {
	MonthStart time.Time           `json:"month_start"`
	Items      []usageItemResponse `json:"items"`
}

func (h *Handler) getUsageSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.usage.Summary(r.Context(), keyFrom(r))
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}

	out := usageSummaryResponse{
		MonthStart: summary.MonthStart,
		Items:      make([]usageItemResponse, 0, len(summary.Items)),
	}
	for _, item := range summary.Items {
		out.Items = append(out.Items, usageItemResponse{
			Type:  string(item.Type),
			Used:  item.Used,
			Limit: item.Limit,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type recordUsageRequest struct {
	Type     string `json:"type"`
	Quantity int64  `json:"quantity"`
}

func (h *Handler) recordUsage(w http.ResponseWriter, r *http.Request) {
	var req recordUsageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	usageType, err := usage.ParseType(req.Type)
	if err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}

	if err := h.usage.Record(r.Context(), keyFrom(r), usageType, req.Quantity); err != nil {
		respondDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

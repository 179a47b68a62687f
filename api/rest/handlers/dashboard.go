package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"melody-transcriber/core/models"
	"melody-transcriber/core/registry"
)

// DashboardHandler serves the operator summary view.
type DashboardHandler struct {
	registry  registry.Registry
	startedAt time.Time
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(reg registry.Registry) *DashboardHandler {
	return &DashboardHandler{
		registry:  reg,
		startedAt: time.Now(),
	}
}

// GetSummary handles GET /v1/dashboard.
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.registry.CountByStatus()
	if err != nil {
		http.Error(w, "Failed to count jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	response := map[string]interface{}{
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"jobs": map[string]interface{}{
			"total":      total,
			"pending":    counts[models.JobStatusPending],
			"processing": counts[models.JobStatusProcessing],
			"succeeded":  counts[models.JobStatusSucceeded],
			"failed":     counts[models.JobStatusFailed],
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

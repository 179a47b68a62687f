package handlers

import (
	"fmt"
	"net/http"

	"melody-transcriber/core/models"
	"melody-transcriber/core/registry"
	"melody-transcriber/storage"

	"github.com/gorilla/mux"
)

// ScoreHandler renders notation exports for succeeded analyses.
type ScoreHandler struct {
	registry  registry.Registry
	artifacts *storage.ArtifactManager
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(reg registry.Registry, artifacts *storage.ArtifactManager) *ScoreHandler {
	return &ScoreHandler{registry: reg, artifacts: artifacts}
}

// GetScore handles GET /v1/analyses/{id}/score?format=midi|musicxml.
// Only succeeded analyses have a score.
func (h *ScoreHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	job, err := h.registry.Get(jobID)
	if err != nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}
	if job.Status != models.JobStatusSucceeded {
		http.Error(w, fmt.Sprintf("Analysis is %s, no score available", job.Status), http.StatusConflict)
		return
	}

	format := models.ScoreFormatMIDI
	switch r.URL.Query().Get("format") {
	case "", "midi":
	case "musicxml":
		format = models.ScoreFormatMusicXML
	default:
		http.Error(w, "format must be midi or musicxml", http.StatusBadRequest)
		return
	}

	data, contentType, err := h.artifacts.RenderAndStore(r.Context(), job, format)
	if err != nil {
		http.Error(w, "Failed to render score: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ext := "mid"
	if format == models.ScoreFormatMusicXML {
		ext = "musicxml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", job.ID, ext))
	w.Write(data)
}

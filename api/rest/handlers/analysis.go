// Package handlers implements the REST API over the job registry.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"melody-transcriber/core/models"
	"melody-transcriber/core/registry"
	"melody-transcriber/core/rhythm"
	"melody-transcriber/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// JobQueue accepts jobs for asynchronous execution; the worker pool
// satisfies it.
type JobQueue interface {
	Submit(job *models.Job)
}

// AnalysisHandler handles analysis job HTTP requests.
type AnalysisHandler struct {
	registry       registry.Registry
	blobs          *storage.BlobStore
	queue          JobQueue
	maxUploadBytes int64
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(reg registry.Registry, blobs *storage.BlobStore, queue JobQueue, maxUploadBytes int64) *AnalysisHandler {
	return &AnalysisHandler{
		registry:       reg,
		blobs:          blobs,
		queue:          queue,
		maxUploadBytes: maxUploadBytes,
	}
}

// SubmitAnalysisResponse represents the response after submitting an
// analysis.
type SubmitAnalysisResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitAnalysis handles POST /v1/analyses. The request is multipart:
// a "file" part with the WAV upload plus optional parameter fields.
func (h *AnalysisHandler) SubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart request: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".wav") {
		http.Error(w, "Only WAV uploads are supported", http.StatusUnsupportedMediaType)
		return
	}

	params, err := parseAnalysisParams(r)
	if err != nil {
		http.Error(w, "Invalid analysis parameters: "+err.Error(), http.StatusBadRequest)
		return
	}

	audioPath, err := h.blobs.Save(file, "analysis-*.wav")
	if err != nil {
		http.Error(w, "Failed to store upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	job := &models.Job{
		ID:        uuid.New().String(),
		FileName:  header.Filename,
		AudioPath: audioPath,
		Params:    params,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
	}

	if err := h.registry.Create(job); err != nil {
		h.blobs.Remove(audioPath)
		http.Error(w, "Failed to create job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.queue.Submit(job)

	resp := SubmitAnalysisResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}

// GetAnalysis handles GET /v1/analyses/{id}. Polling is idempotent: a
// terminal job keeps returning the same payload.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	job, err := h.registry.Get(jobID)
	if err != nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"id":        job.ID,
		"file_name": job.FileName,
		"status":    job.Status,
		"params":    job.Params,
		"timestamps": map[string]interface{}{
			"created_at":   job.CreatedAt,
			"started_at":   job.StartedAt,
			"completed_at": job.CompletedAt,
		},
	}

	switch job.Status {
	case models.JobStatusSucceeded:
		response["result"] = job.Result
	case models.JobStatusFailed:
		response["error"] = job.Error
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetAnalysisEvents handles GET /v1/analyses/{id}/events.
func (h *AnalysisHandler) GetAnalysisEvents(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	events, err := h.registry.Events(jobID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			http.Error(w, "Analysis not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch events: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, len(events))
	for i, event := range events {
		item := map[string]interface{}{
			"at":        event.At,
			"to_status": event.ToStatus,
			"reason":    event.Reason,
		}
		if event.FromStatus != nil {
			item["from_status"] = *event.FromStatus
		}
		items[i] = item
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": items,
	})
}

// parseAnalysisParams reads the optional tuning fields from the form,
// falling back to defaults. Out-of-range values are rejected here so
// the pipeline never sees them.
func parseAnalysisParams(r *http.Request) (models.AnalysisParams, error) {
	params := models.DefaultAnalysisParams()

	if v := r.FormValue("delta"); v != "" {
		delta, err := strconv.ParseFloat(v, 64)
		if err != nil || delta <= 0 {
			return params, errors.New("delta must be a positive number")
		}
		params.Delta = delta
	}

	if v := r.FormValue("wait"); v != "" {
		wait, err := strconv.ParseFloat(v, 64)
		if err != nil || wait < 0 {
			return params, errors.New("wait must be a non-negative number")
		}
		params.Wait = wait
	}

	if v := r.FormValue("bpm"); v != "" {
		bpm, err := strconv.ParseFloat(v, 64)
		if err != nil || bpm <= 0 {
			return params, errors.New("bpm must be a positive number")
		}
		params.BPM = &bpm
	}

	if v := r.FormValue("grid_resolution"); v != "" {
		if !rhythm.KnownResolution(v) {
			return params, errors.New("unknown grid_resolution " + strconv.Quote(v))
		}
		params.GridResolution = v
	}

	return params, nil
}

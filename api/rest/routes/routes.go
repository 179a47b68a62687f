// Package routes wires the REST API surface onto a mux router.
package routes

import (
	"net/http"

	"melody-transcriber/api/rest/handlers"
	"melody-transcriber/core/monitoring"
	"melody-transcriber/core/registry"
	"melody-transcriber/storage"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes.
func SetupRoutes(r *mux.Router, reg registry.Registry, blobs *storage.BlobStore, queue handlers.JobQueue, artifacts *storage.ArtifactManager, exporter *monitoring.MetricsExporter, maxUploadBytes int64) {
	analysisHandler := handlers.NewAnalysisHandler(reg, blobs, queue, maxUploadBytes)
	scoreHandler := handlers.NewScoreHandler(reg, artifacts)
	dashboardHandler := handlers.NewDashboardHandler(reg)

	api := r.PathPrefix("/v1").Subrouter()

	// Analysis endpoints
	api.HandleFunc("/analyses", analysisHandler.SubmitAnalysis).Methods("POST")
	api.HandleFunc("/analyses/{id}", analysisHandler.GetAnalysis).Methods("GET")
	api.HandleFunc("/analyses/{id}/events", analysisHandler.GetAnalysisEvents).Methods("GET")
	api.HandleFunc("/analyses/{id}/score", scoreHandler.GetScore).Methods("GET")

	// Operator endpoints
	api.HandleFunc("/dashboard", dashboardHandler.GetSummary).Methods("GET")

	r.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(exporter.GetPrometheusMetrics()))
	}).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
}

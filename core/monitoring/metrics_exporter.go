// Package monitoring exposes job-lifecycle observability: a
// Prometheus text exporter and a periodic status logger.
package monitoring

import (
	"fmt"

	"melody-transcriber/core/models"
	"melody-transcriber/core/registry"
)

// allStatuses is the stable emission order for per-status series.
var allStatuses = []models.JobStatus{
	models.JobStatusPending,
	models.JobStatusProcessing,
	models.JobStatusSucceeded,
	models.JobStatusFailed,
}

// MetricsExporter exports job metrics in Prometheus text format.
type MetricsExporter struct {
	registry registry.Registry
}

// NewMetricsExporter creates a new metrics exporter over a job store.
func NewMetricsExporter(reg registry.Registry) *MetricsExporter {
	return &MetricsExporter{registry: reg}
}

// GetPrometheusMetrics returns metrics in Prometheus format.
func (me *MetricsExporter) GetPrometheusMetrics() string {
	counts, err := me.registry.CountByStatus()
	if err != nil {
		return ""
	}

	var metrics string

	metrics += "# HELP analysis_jobs_total Total number of analysis jobs\n"
	metrics += "# TYPE analysis_jobs_total counter\n"
	total := 0
	for _, n := range counts {
		total += n
	}
	metrics += fmt.Sprintf("analysis_jobs_total %d\n", total)

	metrics += "# HELP analysis_jobs Number of analysis jobs per status\n"
	metrics += "# TYPE analysis_jobs gauge\n"
	for _, status := range allStatuses {
		metrics += fmt.Sprintf("analysis_jobs{status=\"%s\"} %d\n", status, counts[status])
	}

	return metrics
}

package monitoring

import (
	"context"
	"log"
	"time"

	"melody-transcriber/core/models"
	"melody-transcriber/core/registry"
)

// JobMonitor periodically logs the job population so operators can
// spot a stuck queue without scraping metrics.
type JobMonitor struct {
	registry registry.Registry
	interval time.Duration
}

// NewJobMonitor creates a monitor with the given logging interval.
func NewJobMonitor(reg registry.Registry, interval time.Duration) *JobMonitor {
	return &JobMonitor{registry: reg, interval: interval}
}

// Start runs the monitoring loop until the context is cancelled.
func (jm *JobMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(jm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jm.logStatusCounts()
		}
	}
}

func (jm *JobMonitor) logStatusCounts() {
	counts, err := jm.registry.CountByStatus()
	if err != nil {
		log.Printf("Failed to count jobs: %v", err)
		return
	}

	// Quiet when idle.
	if counts[models.JobStatusPending] == 0 && counts[models.JobStatusProcessing] == 0 {
		return
	}

	log.Printf("Jobs: %d pending, %d processing, %d succeeded, %d failed",
		counts[models.JobStatusPending],
		counts[models.JobStatusProcessing],
		counts[models.JobStatusSucceeded],
		counts[models.JobStatusFailed])
}

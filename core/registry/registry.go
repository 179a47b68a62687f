// Package registry stores job records keyed by id. It supports
// concurrent create, transition and read; only the worker owning a
// job transitions it.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"melody-transcriber/core/models"
)

// ErrNotFound is returned when no job exists for an id.
var ErrNotFound = errors.New("job not found")

// ErrInvalidTransition is returned when a transition does not match
// the job's current status.
var ErrInvalidTransition = errors.New("invalid job transition")

// Registry is the job store contract shared by the in-memory backend
// and the Postgres repository.
type Registry interface {
	Create(job *models.Job) error
	Get(id string) (*models.Job, error)
	MarkProcessing(id string) error
	MarkSucceeded(id string, result *models.AnalysisResult) error
	MarkFailed(id string, message string) error
	Events(id string) ([]models.JobEvent, error)
	CountByStatus() (map[models.JobStatus]int, error)
}

// Memory is the default in-process Registry.
type Memory struct {
	mu     sync.RWMutex
	jobs   map[string]*models.Job
	events map[string][]models.JobEvent
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		jobs:   make(map[string]*models.Job),
		events: make(map[string][]models.JobEvent),
	}
}

// Create stores a new pending job.
func (m *Memory) Create(job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}

	stored := *job
	m.jobs[job.ID] = &stored
	m.appendEventLocked(job.ID, nil, job.Status, "job_created")
	return nil
}

// Get returns a copy of the job. Polling a terminal job keeps
// returning the same result or error.
func (m *Memory) Get(id string) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

// MarkProcessing transitions pending -> processing.
func (m *Memory) MarkProcessing(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status != models.JobStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, models.JobStatusProcessing)
	}

	from := job.Status
	now := time.Now()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &now
	m.appendEventLocked(id, &from, job.Status, "worker_claimed")
	return nil
}

// MarkSucceeded transitions processing -> succeeded, attaching the
// result atomically with the transition.
func (m *Memory) MarkSucceeded(id string, result *models.AnalysisResult) error {
	return m.finish(id, models.JobStatusSucceeded, result, "", "pipeline_completed")
}

// MarkFailed transitions processing -> failed with an error message.
func (m *Memory) MarkFailed(id string, message string) error {
	return m.finish(id, models.JobStatusFailed, nil, message, "pipeline_failed")
}

func (m *Memory) finish(id string, to models.JobStatus, result *models.AnalysisResult, message, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status != models.JobStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, to)
	}

	from := job.Status
	now := time.Now()
	job.Status = to
	job.Result = result
	job.Error = message
	job.CompletedAt = &now
	m.appendEventLocked(id, &from, to, reason)
	return nil
}

// Events returns the transition history for a job.
func (m *Memory) Events(id string) ([]models.JobEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.jobs[id]; !ok {
		return nil, ErrNotFound
	}
	events := make([]models.JobEvent, len(m.events[id]))
	copy(events, m.events[id])
	return events, nil
}

// CountByStatus returns job counts per status.
func (m *Memory) CountByStatus() (map[models.JobStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[models.JobStatus]int)
	for _, job := range m.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (m *Memory) appendEventLocked(id string, from *models.JobStatus, to models.JobStatus, reason string) {
	m.events[id] = append(m.events[id], models.JobEvent{
		ID:         int64(len(m.events[id]) + 1),
		JobID:      id,
		At:         time.Now(),
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
	})
}

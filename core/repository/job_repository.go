package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"melody-transcriber/core/models"
	"melody-transcriber/core/registry"
)

// JobRepository is the Postgres-backed job registry. It implements
// registry.Registry so the service can run against either backend.
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ registry.Registry = (*JobRepository)(nil)

// Create inserts a new pending job with its creation event.
func (r *JobRepository) Create(job *models.Job) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO analysis_jobs (
			id, file_name, audio_path, delta, wait, bpm, grid_resolution,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(query,
		job.ID,
		job.FileName,
		job.AudioPath,
		job.Params.Delta,
		job.Params.Wait,
		job.Params.BPM,
		job.Params.GridResolution,
		job.Status,
		time.Now(),
	)
	if err != nil {
		return err
	}

	if err := r.createEventTx(tx, job.ID, nil, job.Status, "job_created"); err != nil {
		return err
	}
	return tx.Commit()
}

// Get retrieves a job by ID
func (r *JobRepository) Get(id string) (*models.Job, error) {
	query := `
		SELECT id, file_name, audio_path, delta, wait, bpm, grid_resolution,
			status, result_json, error, created_at, started_at, completed_at
		FROM analysis_jobs
		WHERE id = $1
	`

	var job models.Job
	var bpm sql.NullFloat64
	var resultJSON sql.NullString
	var errMsg sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime

	err := r.db.QueryRow(query, id).Scan(
		&job.ID,
		&job.FileName,
		&job.AudioPath,
		&job.Params.Delta,
		&job.Params.Wait,
		&bpm,
		&job.Params.GridResolution,
		&job.Status,
		&resultJSON,
		&errMsg,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if bpm.Valid {
		job.Params.BPM = &bpm.Float64
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("failed to decode stored result: %w", err)
		}
		job.Result = &result
	}

	return &job, nil
}

// MarkProcessing transitions pending -> processing.
func (r *JobRepository) MarkProcessing(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE analysis_jobs SET status = $1, started_at = NOW() WHERE id = $2 AND status = $3`,
		models.JobStatusProcessing, id, models.JobStatusPending,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: job %s is not pending", registry.ErrInvalidTransition, id)
	}

	from := models.JobStatusPending
	if err := r.createEventTx(tx, id, &from, models.JobStatusProcessing, "worker_claimed"); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkSucceeded transitions processing -> succeeded with the result
// payload attached in the same transaction.
func (r *JobRepository) MarkSucceeded(id string, result *models.AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return r.finish(id, models.JobStatusSucceeded, string(resultJSON), "", "pipeline_completed")
}

// MarkFailed transitions processing -> failed with an error message.
func (r *JobRepository) MarkFailed(id string, message string) error {
	return r.finish(id, models.JobStatusFailed, "", message, "pipeline_failed")
}

func (r *JobRepository) finish(id string, to models.JobStatus, resultJSON, message, reason string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var storedResult *string
	if resultJSON != "" {
		storedResult = &resultJSON
	}
	var storedError *string
	if message != "" {
		storedError = &message
	}

	res, err := tx.Exec(
		`UPDATE analysis_jobs
		 SET status = $1, result_json = $2, error = $3, completed_at = NOW()
		 WHERE id = $4 AND status = $5`,
		to, storedResult, storedError, id, models.JobStatusProcessing,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: job %s is not processing", registry.ErrInvalidTransition, id)
	}

	from := models.JobStatusProcessing
	if err := r.createEventTx(tx, id, &from, to, reason); err != nil {
		return err
	}
	return tx.Commit()
}

// Events returns the transition history for a job, oldest first.
func (r *JobRepository) Events(id string) ([]models.JobEvent, error) {
	query := `
		SELECT id, job_id, at, from_status, to_status, reason
		FROM analysis_job_events
		WHERE job_id = $1
		ORDER BY at ASC
	`
	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.JobEvent
	for rows.Next() {
		var event models.JobEvent
		var fromStatus sql.NullString
		if err := rows.Scan(
			&event.ID,
			&event.JobID,
			&event.At,
			&fromStatus,
			&event.ToStatus,
			&event.Reason,
		); err != nil {
			return nil, err
		}
		if fromStatus.Valid {
			status := models.JobStatus(fromStatus.String)
			event.FromStatus = &status
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// CountByStatus returns job counts per status.
func (r *JobRepository) CountByStatus() (map[models.JobStatus]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM analysis_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.JobStatus]int)
	for rows.Next() {
		var status models.JobStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ListPending returns pending jobs oldest first, for worker recovery
// after a restart.
func (r *JobRepository) ListPending(limit int) ([]*models.Job, error) {
	rows, err := r.db.Query(
		`SELECT id FROM analysis_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		models.JobStatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	jobs := make([]*models.Job, 0, len(ids))
	for _, id := range ids {
		job, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *JobRepository) createEventTx(tx *sql.Tx, jobID string, from *models.JobStatus, to models.JobStatus, reason string) error {
	var fromStr *string
	if from != nil {
		s := string(*from)
		fromStr = &s
	}
	_, err := tx.Exec(
		`INSERT INTO analysis_job_events (job_id, from_status, to_status, reason, at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		jobID, fromStr, to, reason,
	)
	return err
}

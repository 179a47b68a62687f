package repository

import (
	"melody-transcriber/core/models"
)

// ArtifactRepository records rendered score artifacts for jobs.
type ArtifactRepository struct {
	db *DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// CreateArtifact records a rendered score stored at uri.
func (r *ArtifactRepository) CreateArtifact(jobID string, format models.ScoreFormat, uri string) error {
	query := `
		INSERT INTO score_artifacts (job_id, format, uri, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.db.Exec(query, jobID, format, uri)
	return err
}

// GetJobArtifacts retrieves score artifacts for a job, newest first.
func (r *ArtifactRepository) GetJobArtifacts(jobID string) ([]models.ScoreArtifact, error) {
	query := `
		SELECT id, job_id, format, uri, created_at
		FROM score_artifacts
		WHERE job_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []models.ScoreArtifact
	for rows.Next() {
		var artifact models.ScoreArtifact
		if err := rows.Scan(
			&artifact.ID,
			&artifact.JobID,
			&artifact.Format,
			&artifact.URI,
			&artifact.CreatedAt,
		); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

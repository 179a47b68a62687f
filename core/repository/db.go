package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
)

// DB wraps the shared database handle
type DB struct {
	*sql.DB
}

// NewDB opens a Postgres connection pool
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: db}, nil
}

// EnsureSchema creates the job tables when they do not exist yet.
func (db *DB) EnsureSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS analysis_jobs (
			id UUID PRIMARY KEY,
			file_name TEXT NOT NULL,
			audio_path TEXT NOT NULL,
			delta DOUBLE PRECISION NOT NULL,
			wait DOUBLE PRECISION NOT NULL,
			bpm DOUBLE PRECISION,
			grid_resolution TEXT NOT NULL,
			status TEXT NOT NULL,
			result_json TEXT,
			error TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_job_events (
			id BIGSERIAL PRIMARY KEY,
			job_id UUID NOT NULL REFERENCES analysis_jobs(id),
			from_status TEXT,
			to_status TEXT NOT NULL,
			reason TEXT NOT NULL,
			at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS score_artifacts (
			id BIGSERIAL PRIMARY KEY,
			job_id UUID NOT NULL REFERENCES analysis_jobs(id),
			format TEXT NOT NULL,
			uri TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

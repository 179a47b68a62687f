package models

import "time"

// JobEvent represents a state transition event for a job
type JobEvent struct {
	ID         int64
	JobID      string
	At         time.Time
	FromStatus *JobStatus
	ToStatus   JobStatus
	Reason     string
}

// ScoreFormat identifies a rendered notation format.
type ScoreFormat string

const (
	ScoreFormatMIDI     ScoreFormat = "midi"
	ScoreFormatMusicXML ScoreFormat = "musicxml"
)

// ScoreArtifact records a rendered score stored for a succeeded job.
type ScoreArtifact struct {
	ID        int64
	JobID     string
	Format    ScoreFormat
	URI       string
	CreatedAt time.Time
}

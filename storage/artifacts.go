package storage

import (
	"context"
	"fmt"
	"log"

	"melody-transcriber/core/models"
	"melody-transcriber/notation"
)

// ArtifactRecorder persists a reference to a stored score; the
// Postgres artifact repository satisfies it.
type ArtifactRecorder interface {
	CreateArtifact(jobID string, format models.ScoreFormat, uri string) error
}

// ArtifactManager renders scores for succeeded jobs and optionally
// mirrors them to S3. Uploader and recorder may be nil; rendering
// still works without either.
type ArtifactManager struct {
	uploader *ScoreUploader
	recorder ArtifactRecorder
}

// NewArtifactManager wires the renderer to its optional sinks.
func NewArtifactManager(uploader *ScoreUploader, recorder ArtifactRecorder) *ArtifactManager {
	return &ArtifactManager{uploader: uploader, recorder: recorder}
}

// Render produces the score bytes for a completed analysis in the
// requested format.
func (m *ArtifactManager) Render(result *models.AnalysisResult, format models.ScoreFormat) ([]byte, string, error) {
	switch format {
	case models.ScoreFormatMIDI:
		data, err := notation.RenderSMF(result.Notes, result.BPM)
		return data, "audio/midi", err
	case models.ScoreFormatMusicXML:
		data, err := notation.RenderMusicXML(result.Notes, result.BPM)
		return data, "application/vnd.recordare.musicxml+xml", err
	default:
		return nil, "", fmt.Errorf("unknown score format %q", format)
	}
}

// RenderAndStore renders the score and, when configured, uploads it
// and records the artifact. Storage failures are logged, not
// returned; the rendered bytes still go back to the caller.
func (m *ArtifactManager) RenderAndStore(ctx context.Context, job *models.Job, format models.ScoreFormat) ([]byte, string, error) {
	data, contentType, err := m.Render(job.Result, format)
	if err != nil {
		return nil, "", err
	}

	if m.uploader != nil {
		key := fmt.Sprintf("scores/%s.%s", job.ID, fileExtension(format))
		uri, err := m.uploader.Upload(ctx, key, contentType, data)
		if err != nil {
			log.Printf("Failed to upload score for job %s: %v", job.ID, err)
			return data, contentType, nil
		}
		if m.recorder != nil {
			if err := m.recorder.CreateArtifact(job.ID, format, uri); err != nil {
				log.Printf("Failed to record score artifact for job %s: %v", job.ID, err)
			}
		}
	}
	return data, contentType, nil
}

func fileExtension(format models.ScoreFormat) string {
	if format == models.ScoreFormatMIDI {
		return "mid"
	}
	return "musicxml"
}

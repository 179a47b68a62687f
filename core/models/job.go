package models

import "time"

// Job represents one analysis request from upload to terminal state.
// The temporary audio file at AudioPath is owned by the job and is
// removed when the job reaches a terminal status.
type Job struct {
	ID          string
	FileName    string
	AudioPath   string
	Params      AnalysisParams
	Status      JobStatus
	Result      *AnalysisResult
	Error       string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSucceeded  JobStatus = "succeeded"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// AnalysisParams are the caller-tunable knobs for one pipeline run.
type AnalysisParams struct {
	// Delta is the onset detection sensitivity threshold
	// (higher = less sensitive).
	Delta float64 `json:"delta" yaml:"delta"`
	// Wait is the minimum time between onsets in seconds.
	Wait float64 `json:"wait" yaml:"wait"`
	// BPM is the manual tempo override; nil means estimate from audio.
	BPM *float64 `json:"bpm,omitempty" yaml:"bpm,omitempty"`
	// GridResolution selects the quantization grid subdivision,
	// e.g. "1/4", "1/8", "1/16", "1/8t", "1/32".
	GridResolution string `json:"grid_resolution" yaml:"grid_resolution"`
}

// Default analysis parameters, applied when the caller omits them.
const (
	DefaultDelta          = 1.14
	DefaultWait           = 0.03
	DefaultGridResolution = "1/16"
)

// DefaultAnalysisParams returns the parameter set used when a request
// supplies nothing.
func DefaultAnalysisParams() AnalysisParams {
	return AnalysisParams{
		Delta:          DefaultDelta,
		Wait:           DefaultWait,
		GridResolution: DefaultGridResolution,
	}
}

// AnalysisResult is the full payload attached to a succeeded job.
type AnalysisResult struct {
	BPM             float64          `json:"bpm"`
	GridResolution  string           `json:"grid_resolution"`
	BeatGrid        []float64        `json:"beat_grid"`
	PitchContour    []PitchSample    `json:"pitch_contour"`
	Onsets          []OnsetEvent     `json:"onsets"`
	QuantizedOnsets []QuantizedOnset `json:"quantized_onsets"`
	Notes           []QuantizedNote  `json:"quantized_notes"`
	Waveform        WaveformPreview  `json:"waveform"`
	Metadata        AnalysisMetadata `json:"metadata"`
}

// AnalysisMetadata echoes the analysis inputs back to the caller.
type AnalysisMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Duration   float64 `json:"duration"`
	Delta      float64 `json:"delta"`
	Wait       float64 `json:"wait"`
}

// WaveformPreview is the downsampled waveform used for visualization.
type WaveformPreview struct {
	Data  []float64 `json:"data"`
	Times []float64 `json:"times"`
}

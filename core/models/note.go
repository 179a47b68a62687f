package models

// PitchSample is a single per-frame pitch estimate.
type PitchSample struct {
	Time      float64 `json:"time"`
	Frequency float64 `json:"frequency"`
}

// OnsetEvent is a detected note onset with its estimated pitch.
type OnsetEvent struct {
	Time      float64 `json:"time"`
	Frequency float64 `json:"frequency"`
	Note      string  `json:"note,omitempty"`
}

// QuantizedOnset is an onset snapped to the quantization grid.
type QuantizedOnset struct {
	OriginalTime  float64 `json:"original_time"`
	QuantizedTime float64 `json:"quantized_time"`
	QuantizedBeat float64 `json:"quantized_beat"`
	Frequency     float64 `json:"frequency"`
}

// QuantizedNote is a grid-aligned note with its assigned duration,
// expressed both in seconds and in beats.
type QuantizedNote struct {
	PitchHz       float64 `json:"pitch_hz"`
	StartTimeSec  float64 `json:"start_time_sec"`
	DurationSec   float64 `json:"duration_sec"`
	StartTimeBeat float64 `json:"start_time_beat"`
	DurationBeat  float64 `json:"duration_beat"`
}

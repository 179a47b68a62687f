// Package extract combines raw onset timestamps with short
// pitch-estimation windows to produce pitched onset events.
package extract

import (
	"melody-transcriber/core/audio"
	"melody-transcriber/core/models"
	"melody-transcriber/core/pitch"
	"melody-transcriber/core/spectral"
)

// Pitch look-ahead window relative to each onset. The first 20ms are
// skipped so the attack transient does not pollute the estimate.
const (
	windowStartOffset = 0.02
	windowEndOffset   = 0.15
)

// Vocal-range gate: onsets whose pitch falls outside are dropped from
// the pitched-event output.
const (
	minVocalHz = 80.0
	maxVocalHz = 2000.0
)

// PitchedOnsets estimates a pitch for each onset timestamp and keeps
// only events inside the vocal range. Onsets whose look-ahead window
// runs past the end of the signal, or that yield no pitch, are
// dropped.
func PitchedOnsets(w *audio.Waveform, analyzer spectral.Analyzer, onsetTimes []float64) []models.OnsetEvent {
	var events []models.OnsetEvent

	for _, t := range onsetTimes {
		from, to := t+windowStartOffset, t+windowEndOffset
		if !w.Within(from, to) {
			continue
		}

		frequency, _, ok := analyzer.PitchEstimate(w.Slice(from, to))
		if !ok {
			continue
		}
		if frequency <= minVocalHz || frequency >= maxVocalHz {
			continue
		}

		events = append(events, models.OnsetEvent{
			Time:      t,
			Frequency: frequency,
			Note:      pitch.NoteName(frequency),
		})
	}
	return events
}

// PitchContour estimates a pitch per analysis frame across the whole
// signal, for visualization alongside the note output.
func PitchContour(w *audio.Waveform, analyzer spectral.Analyzer) []models.PitchSample {
	const (
		frameSeconds = 0.10
		hopSeconds   = 0.05
	)

	var contour []models.PitchSample
	for t := 0.0; t+frameSeconds <= w.Duration(); t += hopSeconds {
		frequency, _, ok := analyzer.PitchEstimate(w.Slice(t, t+frameSeconds))
		if !ok {
			continue
		}
		contour = append(contour, models.PitchSample{Time: t, Frequency: frequency})
	}
	return contour
}

// Package spectral provides the signal-analysis front-end consumed by
// the quantization pipeline: per-window pitch estimation, onset
// detection and global tempo estimation.
package spectral

import "melody-transcriber/core/audio"

// Analyzer is the spectral front-end contract. The pipeline treats it
// as a black box; Detector is the built-in implementation.
type Analyzer interface {
	// PitchEstimate returns the most prominent pitch in the window
	// with a confidence in [0, 1]. ok is false when the window holds
	// no usable pitch (silence, noise, too short).
	PitchEstimate(w *audio.Waveform) (frequency, confidence float64, ok bool)

	// OnsetTimes returns onset timestamps in seconds, strictly
	// increasing and separated by at least wait seconds. delta tunes
	// the detection sensitivity (higher = less sensitive).
	OnsetTimes(w *audio.Waveform, delta, wait float64) []float64

	// EstimateTempo returns a global tempo estimate in BPM. ok is
	// false when no estimate is available.
	EstimateTempo(w *audio.Waveform) (bpm float64, ok bool)
}

// Package rhythm builds tempo-derived time grids and snaps onset
// events onto them.
package rhythm

import (
	"math"

	"melody-transcriber/core/audio"
	"melody-transcriber/core/spectral"
)

// DefaultBPM is used whenever no usable tempo is supplied or
// estimated. Tempo resolution never fails: availability wins over
// strict correctness here.
const DefaultBPM = 120.0

// subdivisionsPerBeat maps a grid-resolution token to the number of
// quantization points per beat.
var subdivisionsPerBeat = map[string]int{
	"1/4":  1,
	"1/8":  2,
	"1/16": 4,
	"1/8t": 3,
	"1/32": 8,
}

// defaultSubdivisions is applied for unrecognized tokens (1/16 grid).
const defaultSubdivisions = 4

// ResolveTempo returns the manual BPM when supplied, otherwise the
// front-end estimate, otherwise DefaultBPM. Non-positive values fall
// through to the next source.
func ResolveTempo(manual *float64, w *audio.Waveform, analyzer spectral.Analyzer) float64 {
	if manual != nil && *manual > 0 {
		return *manual
	}
	if bpm, ok := analyzer.EstimateTempo(w); ok && bpm > 0 {
		return bpm
	}
	return DefaultBPM
}

// KnownResolution reports whether a grid-resolution token is one of
// the supported subdivisions. Ingress uses it to reject typos while
// the pipeline itself stays lenient.
func KnownResolution(token string) bool {
	_, ok := subdivisionsPerBeat[token]
	return ok
}

// Subdivisions resolves a grid-resolution token to its subdivision
// count. Unknown tokens get the default rather than an error;
// rejecting tokens is an ingress concern.
func Subdivisions(token string) int {
	if s, ok := subdivisionsPerBeat[token]; ok {
		return s
	}
	return defaultSubdivisions
}

// BeatGrid returns beat timestamps i*(60/bpm) covering [0, duration].
func BeatGrid(bpm, duration float64) []float64 {
	beatDuration := 60.0 / bpm
	numBeats := int(math.Ceil(duration / beatDuration))
	grid := make([]float64, numBeats)
	for i := range grid {
		grid[i] = float64(i) * beatDuration
	}
	return grid
}

// QuantizationGrid expands a beat grid by inserting subdivisions
// evenly spaced points per beat interval. A grid of fewer than two
// beats is returned unchanged; there is no interval to subdivide.
func QuantizationGrid(beatGrid []float64, subdivisions int) []float64 {
	if len(beatGrid) < 2 {
		return beatGrid
	}

	interval := beatGrid[1] - beatGrid[0]
	grid := make([]float64, 0, len(beatGrid)*subdivisions)
	for _, beatTime := range beatGrid {
		for j := 0; j < subdivisions; j++ {
			grid = append(grid, beatTime+float64(j)*interval/float64(subdivisions))
		}
	}
	return grid
}

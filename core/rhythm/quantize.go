package rhythm

import (
	"math"
	"sort"

	"melody-transcriber/core/models"
)

// QuantizeOnsets snaps each onset to the nearest grid point and
// computes its beat position. Equidistant grid points resolve to the
// lower index for determinism. Empty input or an empty grid yields an
// empty result, never an error.
func QuantizeOnsets(onsets []models.OnsetEvent, grid []float64, bpm float64) []models.QuantizedOnset {
	if len(grid) == 0 || len(onsets) == 0 {
		return nil
	}

	beatDuration := 60.0 / bpm
	quantized := make([]models.QuantizedOnset, 0, len(onsets))

	for _, onset := range onsets {
		quantizedTime := nearestGridPoint(grid, onset.Time)
		quantized = append(quantized, models.QuantizedOnset{
			OriginalTime:  onset.Time,
			QuantizedTime: quantizedTime,
			QuantizedBeat: quantizedTime / beatDuration,
			Frequency:     onset.Frequency,
		})
	}
	return quantized
}

// nearestGridPoint binary-searches the sorted grid for the point of
// minimum absolute distance to t. On a tie the earlier point wins.
func nearestGridPoint(grid []float64, t float64) float64 {
	i := sort.SearchFloat64s(grid, t)
	if i == 0 {
		return grid[0]
	}
	if i == len(grid) {
		return grid[len(grid)-1]
	}
	if math.Abs(t-grid[i-1]) <= math.Abs(grid[i]-t) {
		return grid[i-1]
	}
	return grid[i]
}

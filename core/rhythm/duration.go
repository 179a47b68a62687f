package rhythm

import (
	"math"

	"melody-transcriber/core/models"
)

// standardDurations are the representable note lengths in quarter
// units: whole, half, quarter, eighth, sixteenth. Scan order matters:
// on a distance tie the first (larger) value wins.
var standardDurations = [5]float64{4.0, 2.0, 1.0, 0.5, 0.25}

// SnapToStandard maps a raw quarter-note length onto the nearest
// standard note value, clamped to [0.25, 4].
func SnapToStandard(quarterLength float64) float64 {
	best := standardDurations[0]
	bestDist := math.Abs(quarterLength - best)
	for _, v := range standardDurations[1:] {
		if d := math.Abs(quarterLength - v); d < bestDist {
			best, bestDist = v, d
		}
	}

	if best > 4.0 {
		return 4.0
	}
	if best < 0.25 {
		return 0.25
	}
	return best
}

// AssignDurations turns quantized onsets into notes whose duration is
// the gap to the next onset. The final note gets one beat or the
// remaining audio, whichever is shorter, floored at zero. Durations
// stay as measured gaps; SnapToStandard is a separate strategy for
// callers without inter-onset data.
func AssignDurations(onsets []models.QuantizedOnset, bpm, totalDuration float64) []models.QuantizedNote {
	if len(onsets) == 0 {
		return nil
	}

	beatDuration := 60.0 / bpm
	notes := make([]models.QuantizedNote, 0, len(onsets))

	for i, onset := range onsets {
		var durationSec float64
		if i < len(onsets)-1 {
			durationSec = onsets[i+1].QuantizedTime - onset.QuantizedTime
		} else {
			durationSec = math.Min(beatDuration, totalDuration-onset.QuantizedTime)
			if durationSec < 0 {
				durationSec = 0
			}
		}

		notes = append(notes, models.QuantizedNote{
			PitchHz:       onset.Frequency,
			StartTimeSec:  onset.QuantizedTime,
			DurationSec:   durationSec,
			StartTimeBeat: onset.QuantizedBeat,
			DurationBeat:  durationSec / beatDuration,
		})
	}
	return notes
}

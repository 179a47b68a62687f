package rhythm

import (
	"testing"

	"melody-transcriber/core/audio"
	"melody-transcriber/core/models"

	"github.com/stretchr/testify/assert"
)

// stubAnalyzer returns a canned tempo estimate.
type stubAnalyzer struct {
	bpm float64
	ok  bool
}

func (s stubAnalyzer) PitchEstimate(*audio.Waveform) (float64, float64, bool) { return 0, 0, false }
func (s stubAnalyzer) OnsetTimes(*audio.Waveform, float64, float64) []float64 { return nil }
func (s stubAnalyzer) EstimateTempo(*audio.Waveform) (float64, bool)          { return s.bpm, s.ok }

func TestResolveTempo(t *testing.T) {
	assert := assert.New(t)
	w := &audio.Waveform{Samples: make([]float64, 22050), SampleRate: 22050}

	manual := 90.0
	assert.Equal(90.0, ResolveTempo(&manual, w, stubAnalyzer{bpm: 150, ok: true}))

	assert.Equal(150.0, ResolveTempo(nil, w, stubAnalyzer{bpm: 150, ok: true}))

	// Estimate unavailable or non-positive falls back to the default,
	// never an error.
	assert.Equal(DefaultBPM, ResolveTempo(nil, w, stubAnalyzer{ok: false}))
	assert.Equal(DefaultBPM, ResolveTempo(nil, w, stubAnalyzer{bpm: -3, ok: true}))

	negative := -10.0
	assert.Equal(150.0, ResolveTempo(&negative, w, stubAnalyzer{bpm: 150, ok: true}))
}

func TestBeatGrid(t *testing.T) {
	assert := assert.New(t)

	grid := BeatGrid(120, 2.0)
	assert.Equal([]float64{0.0, 0.5, 1.0, 1.5}, grid)

	assert.Len(BeatGrid(60, 3.5), 4)
	assert.Empty(BeatGrid(120, 0))
}

func TestSubdivisions(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(1, Subdivisions("1/4"))
	assert.Equal(2, Subdivisions("1/8"))
	assert.Equal(4, Subdivisions("1/16"))
	assert.Equal(3, Subdivisions("1/8t"))
	assert.Equal(8, Subdivisions("1/32"))
	assert.Equal(4, Subdivisions("banana"))
	assert.Equal(4, Subdivisions(""))
}

func TestQuantizationGridTriplets(t *testing.T) {
	assert := assert.New(t)

	beatGrid := BeatGrid(120, 2.0)
	grid := QuantizationGrid(beatGrid, Subdivisions("1/8t"))

	// Exactly 3 points per beat interval.
	assert.Len(grid, 12)
	assert.InDelta(0.0, grid[0], 1e-9)
	assert.InDelta(0.5/3, grid[1], 1e-9)
	assert.InDelta(1.0/3, grid[2], 1e-9)
	assert.InDelta(0.5, grid[3], 1e-9)

	for i := 1; i < len(grid); i++ {
		assert.Greater(grid[i], grid[i-1])
	}
}

func TestQuantizationGridTooFewBeats(t *testing.T) {
	assert := assert.New(t)

	single := []float64{0.0}
	assert.Equal(single, QuantizationGrid(single, 4))
	assert.Empty(QuantizationGrid(nil, 4))
}

func onsetsAt(times ...float64) []models.OnsetEvent {
	out := make([]models.OnsetEvent, len(times))
	for i, t := range times {
		out[i] = models.OnsetEvent{Time: t, Frequency: 440}
	}
	return out
}

func TestQuantizeOnsetsExactBeats(t *testing.T) {
	assert := assert.New(t)

	beatGrid := BeatGrid(120, 2.1)
	grid := QuantizationGrid(beatGrid, Subdivisions("1/4"))
	quantized := QuantizeOnsets(onsetsAt(0.0, 0.5, 1.0, 1.5, 2.0), grid, 120)

	assert.Len(quantized, 5)
	for i, q := range quantized {
		assert.InDelta(float64(i), q.QuantizedBeat, 1e-9)
		assert.InDelta(float64(i)*0.5, q.QuantizedTime, 1e-9)
	}
}

func TestQuantizeOnsetsSnapToNearest(t *testing.T) {
	assert := assert.New(t)

	grid := []float64{0.0, 0.25, 0.5, 0.75}
	quantized := QuantizeOnsets(onsetsAt(0.25, 0.24, 0.26, 0.61), grid, 120)

	assert.InDelta(0.25, quantized[0].QuantizedTime, 1e-9)
	assert.InDelta(0.25, quantized[1].QuantizedTime, 1e-9)
	assert.InDelta(0.25, quantized[2].QuantizedTime, 1e-9)
	assert.InDelta(0.5, quantized[3].QuantizedTime, 1e-9)
}

func TestQuantizeOnsetsTieBreaksToEarlierPoint(t *testing.T) {
	grid := []float64{0.0, 0.5}
	quantized := QuantizeOnsets(onsetsAt(0.25), grid, 120)
	assert.InDelta(t, 0.0, quantized[0].QuantizedTime, 1e-9)
}

func TestQuantizeOnsetsClampsToGridEdges(t *testing.T) {
	assert := assert.New(t)

	grid := []float64{1.0, 1.5, 2.0}
	quantized := QuantizeOnsets(onsetsAt(0.1, 9.9), grid, 120)
	assert.InDelta(1.0, quantized[0].QuantizedTime, 1e-9)
	assert.InDelta(2.0, quantized[1].QuantizedTime, 1e-9)
}

func TestQuantizeOnsetsOutputStaysOnGrid(t *testing.T) {
	assert := assert.New(t)

	grid := QuantizationGrid(BeatGrid(97, 7.3), Subdivisions("1/8"))
	onsets := onsetsAt(0.11, 0.57, 1.3, 2.22, 3.9, 5.05, 7.0)
	quantized := QuantizeOnsets(onsets, grid, 97)

	var maxGap float64
	for i := 1; i < len(grid); i++ {
		if gap := grid[i] - grid[i-1]; gap > maxGap {
			maxGap = gap
		}
	}

	for _, q := range quantized {
		assert.Contains(grid, q.QuantizedTime)
		assert.LessOrEqual(absDiff(q.QuantizedTime, q.OriginalTime), maxGap)
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestQuantizeOnsetsEmptyInputs(t *testing.T) {
	assert := assert.New(t)
	assert.Empty(QuantizeOnsets(nil, []float64{0, 0.5}, 120))
	assert.Empty(QuantizeOnsets(onsetsAt(0.5), nil, 120))
}

func TestSnapToStandard(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.25, SnapToStandard(0.26))
	assert.Equal(4.0, SnapToStandard(4.5))
	assert.Equal(0.25, SnapToStandard(0.1))
	assert.Equal(1.0, SnapToStandard(1.0))
	assert.Equal(2.0, SnapToStandard(2.4))
	assert.Equal(4.0, SnapToStandard(100))
}

// Equidistant raw values take the larger standard value because the
// set is scanned largest first.
func TestSnapToStandardTieTakesLarger(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0.5, SnapToStandard(0.375))
	assert.Equal(4.0, SnapToStandard(3.0))
	assert.Equal(2.0, SnapToStandard(1.5))
	assert.Equal(1.0, SnapToStandard(0.75))
}

func TestAssignDurationsGapToNext(t *testing.T) {
	assert := assert.New(t)

	onsets := []models.QuantizedOnset{
		{QuantizedTime: 0.0, QuantizedBeat: 0, Frequency: 440},
		{QuantizedTime: 0.5, QuantizedBeat: 1, Frequency: 550},
		{QuantizedTime: 1.5, QuantizedBeat: 3, Frequency: 660},
	}
	notes := AssignDurations(onsets, 120, 4.0)

	assert.Len(notes, 3)
	assert.InDelta(0.5, notes[0].DurationSec, 1e-9)
	assert.InDelta(1.0, notes[0].DurationBeat, 1e-9)
	assert.InDelta(1.0, notes[1].DurationSec, 1e-9)
	assert.InDelta(2.0, notes[1].DurationBeat, 1e-9)

	// Final note: min(beat duration, remaining audio).
	assert.InDelta(0.5, notes[2].DurationSec, 1e-9)
	assert.InDelta(1.0, notes[2].DurationBeat, 1e-9)
}

func TestAssignDurationsLastNoteClamped(t *testing.T) {
	assert := assert.New(t)

	onsets := []models.QuantizedOnset{{QuantizedTime: 3.8, QuantizedBeat: 7.6, Frequency: 330}}

	// Remaining audio shorter than one beat.
	notes := AssignDurations(onsets, 120, 4.0)
	assert.InDelta(0.2, notes[0].DurationSec, 1e-9)

	// Onset past the end of audio floors at zero.
	notes = AssignDurations(onsets, 120, 3.5)
	assert.Equal(0.0, notes[0].DurationSec)
	assert.Equal(0.0, notes[0].DurationBeat)
}

func TestAssignDurationsEmpty(t *testing.T) {
	assert.Empty(t, AssignDurations(nil, 120, 4.0))
}

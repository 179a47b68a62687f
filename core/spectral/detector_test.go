package spectral

import (
	"math"
	"testing"

	"melody-transcriber/core/audio"

	"github.com/stretchr/testify/assert"
)

const testSR = 22050

func sine(freq, seconds float64) []float64 {
	n := int(seconds * testSR)
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/testSR)
	}
	return out
}

func silence(seconds float64) []float64 {
	return make([]float64, int(seconds*testSR))
}

func TestPitchEstimateSine(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector()

	for _, freq := range []float64{110, 220, 440, 880} {
		w := &audio.Waveform{Samples: sine(freq, 0.13), SampleRate: testSR}
		f, conf, ok := d.PitchEstimate(w)
		assert.True(ok, "freq %v", freq)
		assert.InDelta(freq, f, freq*0.05, "freq %v", freq)
		assert.Greater(conf, minPitchConfidence)
	}
}

func TestPitchEstimateSilence(t *testing.T) {
	d := NewDetector()
	w := &audio.Waveform{Samples: silence(0.13), SampleRate: testSR}
	_, _, ok := d.PitchEstimate(w)
	assert.False(t, ok)
}

func TestPitchEstimateTooShort(t *testing.T) {
	d := NewDetector()
	w := &audio.Waveform{Samples: sine(440, 0.001), SampleRate: testSR}
	_, _, ok := d.PitchEstimate(w)
	assert.False(t, ok)
}

func TestOnsetTimesFindsBursts(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector()

	// Three tone bursts at 0.5s, 1.5s and 2.5s with silence between.
	var samples []float64
	samples = append(samples, silence(0.5)...)
	samples = append(samples, sine(440, 0.3)...)
	samples = append(samples, silence(0.7)...)
	samples = append(samples, sine(550, 0.3)...)
	samples = append(samples, silence(0.7)...)
	samples = append(samples, sine(660, 0.3)...)
	samples = append(samples, silence(0.5)...)
	w := &audio.Waveform{Samples: samples, SampleRate: testSR}

	times := d.OnsetTimes(w, 1.14, 0.03)
	assert.Len(times, 3)

	expected := []float64{0.5, 1.5, 2.5}
	for i, want := range expected {
		assert.InDelta(want, times[i], 0.08, "onset %d", i)
	}

	// Strictly increasing with at least the minimum gap.
	for i := 1; i < len(times); i++ {
		assert.Greater(times[i], times[i-1]+0.03)
	}
}

func TestOnsetTimesEmptyForShortSignal(t *testing.T) {
	d := NewDetector()
	w := &audio.Waveform{Samples: silence(0.01), SampleRate: testSR}
	assert.Empty(t, d.OnsetTimes(w, 1.14, 0.03))
}

func TestEstimateTempoFromClicks(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector()

	// Clicks spaced exactly 43 hops apart, i.e. 60*43.07/43 ~ 60 BPM.
	period := 43 * d.HopLength
	samples := silence(15.0)
	for start := 0; start+600 < len(samples); start += period {
		for j := 0; j < 600; j++ {
			samples[start+j] = 0.9 * math.Sin(2*math.Pi*880*float64(j)/testSR)
		}
	}
	w := &audio.Waveform{Samples: samples, SampleRate: testSR}

	bpm, ok := d.EstimateTempo(w)
	assert.True(ok)
	assert.InDelta(60.0, bpm, 5.0)
}

func TestEstimateTempoUnavailable(t *testing.T) {
	d := NewDetector()
	w := &audio.Waveform{Samples: silence(0.02), SampleRate: testSR}
	_, ok := d.EstimateTempo(w)
	assert.False(t, ok)
}

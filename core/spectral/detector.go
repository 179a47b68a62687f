package spectral

import (
	"golang.org/x/exp/slices"

	"melody-transcriber/core/audio"
)

const (
	defaultFrameLength = 1024
	defaultHopLength   = 512

	// envelopeScale normalizes the onset-strength envelope so the
	// delta threshold keeps the same working range across inputs.
	envelopeScale = 10.0

	// minPitchConfidence is the autocorrelation peak ratio below
	// which a window is treated as unpitched.
	minPitchConfidence = 0.2

	minPitchHz = 60.0
	maxPitchHz = 2200.0

	minTempoBPM = 30.0
	maxTempoBPM = 240.0
)

// Detector is the built-in Analyzer: short-time energy flux for the
// onset-strength envelope, peak picking for onsets, autocorrelation
// for pitch and tempo.
type Detector struct {
	FrameLength int
	HopLength   int
}

// NewDetector returns a Detector with the default frame geometry.
func NewDetector() *Detector {
	return &Detector{
		FrameLength: defaultFrameLength,
		HopLength:   defaultHopLength,
	}
}

// onsetStrength computes the half-wave rectified frame-energy flux,
// normalized to a fixed peak magnitude.
func (d *Detector) onsetStrength(w *audio.Waveform) []float64 {
	if len(w.Samples) < d.FrameLength {
		return nil
	}

	numFrames := 1 + (len(w.Samples)-d.FrameLength)/d.HopLength
	energies := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * d.HopLength
		var e float64
		for _, s := range w.Samples[start : start+d.FrameLength] {
			e += s * s
		}
		energies[i] = e / float64(d.FrameLength)
	}

	flux := make([]float64, numFrames)
	for i := 1; i < numFrames; i++ {
		rise := energies[i] - energies[i-1]
		if rise > 0 {
			flux[i] = rise
		}
	}
	if peak := slices.Max(flux); peak > 0 {
		for i := range flux {
			flux[i] = flux[i] / peak * envelopeScale
		}
	}
	return flux
}

// OnsetTimes detects onsets by peak picking the onset-strength
// envelope with pre/post max and mean windows.
func (d *Detector) OnsetTimes(w *audio.Waveform, delta, wait float64) []float64 {
	env := d.onsetStrength(w)
	if len(env) == 0 {
		return nil
	}

	sr := float64(w.SampleRate)
	hop := float64(d.HopLength)
	preMax := atLeastOne(0.03 * sr / hop)
	postMax := atLeastOne(0.01 * sr / hop)
	preAvg := atLeastOne(0.10 * sr / hop)
	postAvg := atLeastOne(0.10 * sr / hop)
	waitFrames := atLeastOne(wait * sr / hop)

	frames := peakPick(env, preMax, postMax, preAvg, postAvg, delta, waitFrames)

	times := make([]float64, len(frames))
	for i, f := range frames {
		times[i] = float64(f) * hop / sr
	}
	return times
}

// peakPick marks frame i as an onset when it is the local maximum of
// its max window, exceeds the local mean by delta, and is at least
// wait frames after the previous pick.
func peakPick(env []float64, preMax, postMax, preAvg, postAvg int, delta float64, wait int) []int {
	var peaks []int
	lastPeak := -wait - 1

	for i := range env {
		if env[i] <= 0 {
			continue
		}
		if env[i] < windowMax(env, i-preMax, i+postMax+1) {
			continue
		}
		if env[i] < windowMean(env, i-preAvg, i+postAvg+1)+delta {
			continue
		}
		if i-lastPeak <= wait {
			continue
		}
		peaks = append(peaks, i)
		lastPeak = i
	}
	return peaks
}

func windowMax(env []float64, lo, hi int) float64 {
	lo, hi = clampRange(lo, hi, len(env))
	return slices.Max(env[lo:hi])
}

func windowMean(env []float64, lo, hi int) float64 {
	lo, hi = clampRange(lo, hi, len(env))
	if hi <= lo {
		return 0
	}
	var sum float64
	for _, v := range env[lo:hi] {
		sum += v
	}
	return sum / float64(hi-lo)
}

func clampRange(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

func atLeastOne(v float64) int {
	n := int(v)
	if n < 1 {
		n = 1
	}
	return n
}

// PitchEstimate finds the dominant periodicity in the window via
// normalized autocorrelation over the audible pitch lag range.
func (d *Detector) PitchEstimate(w *audio.Waveform) (float64, float64, bool) {
	x := w.Samples
	if len(x) < 2*int(float64(w.SampleRate)/maxPitchHz) || len(x) < 64 {
		return 0, 0, false
	}

	// Remove DC so sustained offsets do not masquerade as pitch.
	var mean float64
	for _, s := range x {
		mean += s
	}
	mean /= float64(len(x))

	centered := make([]float64, len(x))
	var r0 float64
	for i, s := range x {
		centered[i] = s - mean
		r0 += centered[i] * centered[i]
	}
	if r0 < 1e-8 {
		return 0, 0, false
	}

	minLag := int(float64(w.SampleRate) / maxPitchHz)
	maxLag := int(float64(w.SampleRate) / minPitchHz)
	if maxLag >= len(centered) {
		maxLag = len(centered) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if minLag >= maxLag {
		return 0, 0, false
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var r float64
		for i := 0; i+lag < len(centered); i++ {
			r += centered[i] * centered[i+lag]
		}
		if r > bestCorr {
			bestCorr = r
			bestLag = lag
		}
	}
	if bestLag == 0 {
		return 0, 0, false
	}

	confidence := bestCorr / r0
	if confidence < minPitchConfidence {
		return 0, 0, false
	}
	return float64(w.SampleRate) / float64(bestLag), confidence, true
}

// EstimateTempo estimates the global tempo from the periodicity of
// the onset-strength envelope.
func (d *Detector) EstimateTempo(w *audio.Waveform) (float64, bool) {
	env := d.onsetStrength(w)
	if len(env) == 0 {
		return 0, false
	}

	frameRate := float64(w.SampleRate) / float64(d.HopLength)
	minLag := int(60.0 / maxTempoBPM * frameRate)
	maxLag := int(60.0 / minTempoBPM * frameRate)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(env) {
		maxLag = len(env) - 1
	}
	if minLag >= maxLag {
		return 0, false
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var r float64
		for i := 0; i+lag < len(env); i++ {
			r += env[i] * env[i+lag]
		}
		if r > bestCorr {
			bestCorr = r
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr <= 0 {
		return 0, false
	}
	return 60.0 * frameRate / float64(bestLag), true
}

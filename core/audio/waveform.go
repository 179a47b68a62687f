package audio

// Waveform is an in-memory mono audio signal with random access by
// time range.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// SampleAt converts a time in seconds to a sample index, unclamped.
func (w *Waveform) SampleAt(t float64) int {
	return int(t * float64(w.SampleRate))
}

// Within reports whether the time range [from, to) lies entirely
// inside the signal.
func (w *Waveform) Within(from, to float64) bool {
	return from >= 0 && w.SampleAt(to) < len(w.Samples)
}

// Slice returns the sub-signal covering [from, to), clamped to the
// signal bounds. The returned waveform shares the backing array.
func (w *Waveform) Slice(from, to float64) *Waveform {
	start := w.SampleAt(from)
	end := w.SampleAt(to)
	if start < 0 {
		start = 0
	}
	if end > len(w.Samples) {
		end = len(w.Samples)
	}
	if start > end {
		start = end
	}
	return &Waveform{Samples: w.Samples[start:end], SampleRate: w.SampleRate}
}

// Downsample reduces the signal to at most maxPoints samples by
// stride selection, for visualization payloads.
func (w *Waveform) Downsample(maxPoints int) []float64 {
	if maxPoints <= 0 || len(w.Samples) <= maxPoints {
		out := make([]float64, len(w.Samples))
		copy(out, w.Samples)
		return out
	}
	step := len(w.Samples) / maxPoints
	out := make([]float64, 0, maxPoints+1)
	for i := 0; i < len(w.Samples); i += step {
		out = append(out, w.Samples[i])
	}
	return out
}

// TimeAxis returns n evenly spaced timestamps spanning the signal
// duration, matching a downsampled preview of n points.
func (w *Waveform) TimeAxis(n int) []float64 {
	if n <= 0 {
		return nil
	}
	step := w.Duration() / float64(n)
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * step
	}
	return times
}

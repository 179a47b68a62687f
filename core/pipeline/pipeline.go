// Package pipeline runs the full audio-to-notation quantization
// pass: onset extraction, tempo resolution, grid construction, onset
// snapping and duration assignment.
package pipeline

import (
	"errors"
	"fmt"

	"melody-transcriber/core/audio"
	"melody-transcriber/core/extract"
	"melody-transcriber/core/models"
	"melody-transcriber/core/rhythm"
	"melody-transcriber/core/spectral"
)

// MinSamples is the minimum analyzable signal length.
const MinSamples = 2048

// previewPoints caps the downsampled waveform payload size.
const previewPoints = 2000

// ErrInputTooShort marks waveforms below the minimum analysis window.
var ErrInputTooShort = errors.New("audio input too short")

// Pipeline is one parameterized analysis pass over a waveform. All
// collaborators are injected; there is no ambient state.
type Pipeline struct {
	analyzer spectral.Analyzer
}

// New creates a pipeline around the given spectral front-end.
func New(analyzer spectral.Analyzer) *Pipeline {
	return &Pipeline{analyzer: analyzer}
}

// Analyze runs the full pipeline over the waveform and returns the
// quantized result. It fails only on unanalyzable input; tempo and
// grid-token fallbacks never surface as errors.
func (p *Pipeline) Analyze(w *audio.Waveform, params models.AnalysisParams) (*models.AnalysisResult, error) {
	if len(w.Samples) < MinSamples {
		minSeconds := float64(MinSamples) / float64(w.SampleRate)
		return nil, fmt.Errorf("%w: minimum duration %.2fs", ErrInputTooShort, minSeconds)
	}

	duration := w.Duration()

	onsetTimes := p.analyzer.OnsetTimes(w, params.Delta, params.Wait)
	onsets := extract.PitchedOnsets(w, p.analyzer, onsetTimes)
	contour := extract.PitchContour(w, p.analyzer)

	bpm := rhythm.ResolveTempo(params.BPM, w, p.analyzer)
	beatGrid := rhythm.BeatGrid(bpm, duration)
	quantGrid := rhythm.QuantizationGrid(beatGrid, rhythm.Subdivisions(params.GridResolution))
	quantized := rhythm.QuantizeOnsets(onsets, quantGrid, bpm)
	notes := rhythm.AssignDurations(quantized, bpm, duration)

	preview := w.Downsample(previewPoints)

	return &models.AnalysisResult{
		BPM:             bpm,
		GridResolution:  params.GridResolution,
		BeatGrid:        beatGrid,
		PitchContour:    contour,
		Onsets:          onsets,
		QuantizedOnsets: quantized,
		Notes:           notes,
		Waveform: models.WaveformPreview{
			Data:  preview,
			Times: w.TimeAxis(len(preview)),
		},
		Metadata: models.AnalysisMetadata{
			SampleRate: w.SampleRate,
			Duration:   duration,
			Delta:      params.Delta,
			Wait:       params.Wait,
		},
	}, nil
}

// AnalyzeFile decodes a WAV file and runs Analyze on it.
func (p *Pipeline) AnalyzeFile(path string, params models.AnalysisParams) (*models.AnalysisResult, error) {
	w, err := audio.DecodeWAVFile(path)
	if err != nil {
		return nil, err
	}
	return p.Analyze(w, params)
}

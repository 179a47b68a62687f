// Package spec parses YAML batch specifications for the CLI.
package spec

import (
	"fmt"
	"os"

	"melody-transcriber/core/models"
	"melody-transcriber/core/rhythm"

	"gopkg.in/yaml.v3"
)

// BatchSpec represents the YAML batch specification.
type BatchSpec struct {
	Batch BatchSpecBatch `yaml:"batch"`
}

// BatchSpecBatch represents the batch section of the spec.
type BatchSpecBatch struct {
	OutputDir string           `yaml:"output_dir"`
	Defaults  BatchSpecParams  `yaml:"defaults"`
	Analyses  []BatchSpecEntry `yaml:"analyses"`
}

// BatchSpecEntry represents one file to analyze.
type BatchSpecEntry struct {
	File    string          `yaml:"file"`
	Formats []string        `yaml:"formats"`
	Params  BatchSpecParams `yaml:"params"`
}

// BatchSpecParams mirrors the tunable analysis parameters; zero
// values mean "inherit".
type BatchSpecParams struct {
	Delta          float64  `yaml:"delta"`
	Wait           float64  `yaml:"wait"`
	BPM            *float64 `yaml:"bpm,omitempty"`
	GridResolution string   `yaml:"grid_resolution"`
}

// BatchEntry is one resolved unit of batch work.
type BatchEntry struct {
	File    string
	Formats []models.ScoreFormat
	Params  models.AnalysisParams
}

// ParseBatchSpec parses a YAML batch specification into resolved
// entries. Per-entry params override the batch defaults, which in
// turn override the built-in defaults.
func ParseBatchSpec(specYAML string) (string, []BatchEntry, error) {
	var spec BatchSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return "", nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(spec.Batch.Analyses) == 0 {
		return "", nil, fmt.Errorf("batch spec names no analyses")
	}

	entries := make([]BatchEntry, 0, len(spec.Batch.Analyses))
	for i, entry := range spec.Batch.Analyses {
		if entry.File == "" {
			return "", nil, fmt.Errorf("analysis %d has no file", i)
		}

		params := resolveParams(spec.Batch.Defaults, entry.Params)
		if params.GridResolution != "" && !rhythm.KnownResolution(params.GridResolution) {
			return "", nil, fmt.Errorf("analysis %d has unknown grid resolution %q", i, params.GridResolution)
		}
		if params.GridResolution == "" {
			params.GridResolution = models.DefaultGridResolution
		}

		formats, err := resolveFormats(entry.Formats)
		if err != nil {
			return "", nil, fmt.Errorf("analysis %d: %w", i, err)
		}

		entries = append(entries, BatchEntry{
			File:    entry.File,
			Formats: formats,
			Params:  params,
		})
	}

	return spec.Batch.OutputDir, entries, nil
}

// ParseBatchSpecFile reads and parses a batch spec from disk.
func ParseBatchSpecFile(path string) (string, []BatchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read batch spec: %w", err)
	}
	return ParseBatchSpec(string(data))
}

func resolveParams(defaults, override BatchSpecParams) models.AnalysisParams {
	params := models.DefaultAnalysisParams()

	apply := func(src BatchSpecParams) {
		if src.Delta > 0 {
			params.Delta = src.Delta
		}
		if src.Wait > 0 {
			params.Wait = src.Wait
		}
		if src.BPM != nil {
			params.BPM = src.BPM
		}
		if src.GridResolution != "" {
			params.GridResolution = src.GridResolution
		}
	}
	apply(defaults)
	apply(override)
	return params
}

func resolveFormats(tokens []string) ([]models.ScoreFormat, error) {
	if len(tokens) == 0 {
		return []models.ScoreFormat{models.ScoreFormatMIDI}, nil
	}

	formats := make([]models.ScoreFormat, 0, len(tokens))
	for _, token := range tokens {
		switch models.ScoreFormat(token) {
		case models.ScoreFormatMIDI:
			formats = append(formats, models.ScoreFormatMIDI)
		case models.ScoreFormatMusicXML:
			formats = append(formats, models.ScoreFormatMusicXML)
		default:
			return nil, fmt.Errorf("unknown score format %q", token)
		}
	}
	return formats, nil
}

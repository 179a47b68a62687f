// Command transcribe runs the analysis pipeline locally, without the
// server, and writes notation files.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"melody-transcriber/core/models"
	"melody-transcriber/core/pipeline"
	"melody-transcriber/core/rhythm"
	"melody-transcriber/core/spec"
	"melody-transcriber/core/spectral"
	"melody-transcriber/storage"

	"github.com/spf13/cobra"
)

var (
	flagDelta  float64
	flagWait   float64
	flagBPM    float64
	flagGrid   string
	flagFormat string
	flagOutput string
	flagJSON   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Quantize monophonic audio into notation",
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Analyze one WAV file and write a score next to it",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().Float64Var(&flagDelta, "delta", models.DefaultDelta, "onset detection sensitivity threshold")
	analyzeCmd.Flags().Float64Var(&flagWait, "wait", models.DefaultWait, "minimum seconds between onsets")
	analyzeCmd.Flags().Float64Var(&flagBPM, "bpm", 0, "manual tempo override (0 = estimate)")
	analyzeCmd.Flags().StringVar(&flagGrid, "grid", models.DefaultGridResolution, "quantization grid resolution (1/4, 1/8, 1/16, 1/8t, 1/32)")
	analyzeCmd.Flags().StringVar(&flagFormat, "format", "midi", "score format: midi or musicxml")
	analyzeCmd.Flags().StringVar(&flagOutput, "output", "", "output path (default: input path with new extension)")
	analyzeCmd.Flags().BoolVar(&flagJSON, "json", false, "also write the full analysis result as JSON")

	batchCmd := &cobra.Command{
		Use:   "batch <spec.yaml>",
		Short: "Analyze every file named in a YAML batch spec",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	rootCmd.AddCommand(analyzeCmd, batchCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	input := args[0]

	params := models.AnalysisParams{
		Delta:          flagDelta,
		Wait:           flagWait,
		GridResolution: flagGrid,
	}
	if flagDelta <= 0 {
		return fmt.Errorf("delta must be positive")
	}
	if flagWait < 0 {
		return fmt.Errorf("wait must be non-negative")
	}
	if flagBPM > 0 {
		params.BPM = &flagBPM
	}
	if !rhythm.KnownResolution(flagGrid) {
		return fmt.Errorf("unknown grid resolution %q", flagGrid)
	}

	var format models.ScoreFormat
	switch flagFormat {
	case "midi":
		format = models.ScoreFormatMIDI
	case "musicxml":
		format = models.ScoreFormatMusicXML
	default:
		return fmt.Errorf("format must be midi or musicxml")
	}

	pipe := pipeline.New(spectral.NewDetector())
	result, err := pipe.AnalyzeFile(input, params)
	if err != nil {
		return err
	}
	log.Printf("Analyzed %s: %.1f BPM, %d notes", input, result.BPM, len(result.Notes))

	output := flagOutput
	if output == "" {
		output = replaceExt(input, scoreExt(format))
	}
	if err := writeScore(result, format, output); err != nil {
		return err
	}
	log.Printf("Wrote %s", output)

	if flagJSON {
		jsonPath := replaceExt(output, "json")
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		log.Printf("Wrote %s", jsonPath)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	outputDir, entries, err := spec.ParseBatchSpecFile(args[0])
	if err != nil {
		return err
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	pipe := pipeline.New(spectral.NewDetector())

	failures := 0
	for _, entry := range entries {
		result, err := pipe.AnalyzeFile(entry.File, entry.Params)
		if err != nil {
			log.Printf("Failed to analyze %s: %v", entry.File, err)
			failures++
			continue
		}
		log.Printf("Analyzed %s: %.1f BPM, %d notes", entry.File, result.BPM, len(result.Notes))

		for _, format := range entry.Formats {
			output := batchOutputPath(outputDir, entry.File, format)
			if err := writeScore(result, format, output); err != nil {
				log.Printf("Failed to write %s: %v", output, err)
				failures++
				continue
			}
			log.Printf("Wrote %s", output)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d analyses failed", failures, len(entries))
	}
	return nil
}

func writeScore(result *models.AnalysisResult, format models.ScoreFormat, path string) error {
	manager := storage.NewArtifactManager(nil, nil)
	data, _, err := manager.Render(result, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func scoreExt(format models.ScoreFormat) string {
	if format == models.ScoreFormatMIDI {
		return "mid"
	}
	return "musicxml"
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

func batchOutputPath(outputDir, input string, format models.ScoreFormat) string {
	name := replaceExt(filepath.Base(input), scoreExt(format))
	if outputDir == "" {
		return replaceExt(input, scoreExt(format))
	}
	return filepath.Join(outputDir, name)
}

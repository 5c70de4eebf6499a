package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/observability"
	"github.com/jonathan/profile-extractor/internal/pipeline"
)

var (
	extractJSON    bool
	extractVerbose bool
	extractOutput  string
)

var extractCmd = &cobra.Command{
	Use:   "extract <video>",
	Short: "Extract a profile and CV from a local video file",
	Long:  "Runs audio extraction, transcription, field extraction and CV generation on a video file and prints the result.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print the response as JSON")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Show provider attempts and stage progress")
	extractCmd.Flags().StringVarP(&extractOutput, "out", "o", "", "Also write the JSON response to this file")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("failed to read video file %s: %w", videoPath, err)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	opts := pipeline.RunOptions{}
	if extractVerbose {
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s %s\n", e.RequestID, e.Stage, e.Status)
		}
	}

	result, err := a.pipeline.Run(cmd.Context(), videoPath, opts)
	if err != nil {
		var exhausted *llm.ExhaustedError
		if stage, ok := pipeline.FailedStage(err); ok && extractVerbose && errors.As(err, &exhausted) {
			printer.PrintAttempts(string(stage), exhausted.Failures)
		}
		return err
	}
	if extractVerbose {
		for _, stage := range pipeline.Stages {
			printer.PrintAttempts(string(stage), result.Attempts[stage])
		}
	}

	response := result.Response()
	if extractOutput != "" {
		data, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		if err := os.WriteFile(extractOutput, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}

	if extractJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}

	printer.PrintProfile(&result.Profile)
	_, _ = fmt.Fprintf(out, "\n%s\n", result.CV)
	return nil
}

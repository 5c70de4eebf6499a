package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-extractor/internal/observability"
	"github.com/jonathan/profile-extractor/internal/rendering"
	"github.com/jonathan/profile-extractor/internal/testgen"
	"github.com/jonathan/profile-extractor/internal/types"
)

var (
	techProfession   string
	techTechnologies string
	techExperience   string
	techEducation    string
	techRequestFile  string
	techOutput       string
	techHTML         bool
	techVerbose      bool
)

var technicalTestCmd = &cobra.Command{
	Use:   "technical-test",
	Short: "Generate a technical test for a job profile",
	Long: "Generates a Markdown technical test from a profession, technologies, experience and education. " +
		"Fields can be passed as flags or as a JSON request file.",
	RunE: runTechnicalTest,
}

func init() {
	technicalTestCmd.Flags().StringVar(&techProfession, "profession", "", "Target profession")
	technicalTestCmd.Flags().StringVar(&techTechnologies, "technologies", "", "Technologies the test should cover")
	technicalTestCmd.Flags().StringVar(&techExperience, "experience", "", "Expected experience level")
	technicalTestCmd.Flags().StringVar(&techEducation, "education", "", "Expected education")
	technicalTestCmd.Flags().StringVarP(&techRequestFile, "request", "r", "", "Path to a JSON technical test request")
	technicalTestCmd.Flags().StringVarP(&techOutput, "out", "o", "", "Write the test to this file instead of stdout")
	technicalTestCmd.Flags().BoolVar(&techHTML, "html", false, "Render the test as a standalone HTML page")
	technicalTestCmd.Flags().BoolVarP(&techVerbose, "verbose", "v", false, "Show the profile summary and provider attempts")
	rootCmd.AddCommand(technicalTestCmd)
}

// technicalTestRequest builds the request from the request file, then lets flags override it
func technicalTestRequest() (types.TechnicalTestRequest, error) {
	var req types.TechnicalTestRequest
	if techRequestFile != "" {
		content, err := os.ReadFile(techRequestFile)
		if err != nil {
			return req, fmt.Errorf("failed to read request file %s: %w", techRequestFile, err)
		}
		if err := json.Unmarshal(content, &req); err != nil {
			return req, fmt.Errorf("failed to unmarshal request JSON: %w", err)
		}
	}
	for _, f := range []struct {
		dst *string
		v   string
	}{
		{&req.Profession, techProfession},
		{&req.Technologies, techTechnologies},
		{&req.Experience, techExperience},
		{&req.Education, techEducation},
	} {
		if f.v != "" {
			*f.dst = f.v
		}
	}
	return req, req.Validate()
}

// renderTechnicalTest returns the document to write, as Markdown or HTML
func renderTechnicalTest(result *testgen.Result, html bool) (string, error) {
	if !html {
		return result.Markdown, nil
	}
	return rendering.RenderPage(result.Markdown, testgen.Title(result.Markdown))
}

func runTechnicalTest(cmd *cobra.Command, _ []string) error {
	req, err := technicalTestRequest()
	if err != nil {
		return fmt.Errorf("invalid technical test request: %w", err)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.testgen.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	if techVerbose {
		printer := observability.NewPrinter(cmd.ErrOrStderr())
		printer.PrintProfileSummary(result.Summary)
		printer.PrintAttempts("technical-test", result.Attempts)
	}

	doc, err := renderTechnicalTest(result, techHTML)
	if err != nil {
		return err
	}

	if techOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), doc)
		return err
	}
	if err := os.WriteFile(techOutput, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Technical test written to %s\n", techOutput)
	return nil
}

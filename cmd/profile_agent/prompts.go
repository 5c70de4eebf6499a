package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-extractor/internal/observability"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect and manage prompt templates",
	Long:  "Lists, reads and overrides the prompt templates used by the pipeline. Without a configured store only the built-in defaults are available.",
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every resolvable prompt name",
	Args:  cobra.NoArgs,
	RunE:  runPromptsList,
}

var promptsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print the effective template of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromptsGet,
}

var promptsPutFile string

var promptsPutCmd = &cobra.Command{
	Use:   "put <name>",
	Short: "Store a prompt override",
	Long:  "Stores a template for the named prompt. The body is read from --file, or from stdin when --file is '-' or omitted.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromptsPut,
}

var promptsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the built-in defaults for prompts the store does not have",
	Args:  cobra.NoArgs,
	RunE:  runPromptsSeed,
}

func init() {
	promptsPutCmd.Flags().StringVarP(&promptsPutFile, "file", "f", "-", "File holding the template body")

	promptsCmd.AddCommand(promptsListCmd, promptsGetCmd, promptsPutCmd, promptsSeedCmd)
	rootCmd.AddCommand(promptsCmd)
}

func runPromptsList(cmd *cobra.Command, _ []string) error {
	a, err := newPromptApp()
	if err != nil {
		return err
	}
	defer a.Close()

	observability.NewPrinter(cmd.OutOrStdout()).PrintPromptNames(a.prompts.List(cmd.Context()))
	return nil
}

func runPromptsGet(cmd *cobra.Command, args []string) error {
	a, err := newPromptApp()
	if err != nil {
		return err
	}
	defer a.Close()

	body, err := a.prompts.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), body)
	return err
}

func runPromptsPut(cmd *cobra.Command, args []string) error {
	body, err := readTemplate(cmd.InOrStdin(), promptsPutFile)
	if err != nil {
		return err
	}

	a, err := newPromptApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.prompts.Put(cmd.Context(), args[0], body); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Prompt %q saved\n", args[0])
	return nil
}

func runPromptsSeed(cmd *cobra.Command, _ []string) error {
	a, err := newPromptApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.prompts.Seed(cmd.Context())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d default prompts\n", n)
	return nil
}

// readTemplate reads a template body from path, or from stdin for "-"
func readTemplate(stdin io.Reader, path string) (string, error) {
	var (
		content []byte
		err     error
	)
	if path == "" || path == "-" {
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	if len(content) == 0 {
		return "", errors.New("template body is empty")
	}
	return string(content), nil
}

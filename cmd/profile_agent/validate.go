package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-extractor/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <profile.json>",
	Short: "Validate a profile JSON document",
	Long:  "Checks that a JSON document has exactly the profile fields, each holding a string.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	if err := schemas.ValidateProfileData(content); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("validation failed: %s", strings.Join(verr.Fields(), ", "))
		}
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
	return nil
}

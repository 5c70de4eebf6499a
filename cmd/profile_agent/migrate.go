package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-extractor/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply prompt store migrations",
	Long:  "Connects to the configured prompt store (PROMPT_STORE=postgres or sqlite) and applies any pending schema migrations.",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	storeCfg := cfg.StoreConfig()
	if !storeCfg.Enabled() {
		return errors.New("no prompt store configured: set PROMPT_STORE to postgres or sqlite")
	}
	storeCfg.AutoMigrate = true

	store, err := db.Open(cmd.Context(), storeCfg)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = store.Close() }()

	logger.Info("migrations applied", slog.String("driver", storeCfg.Driver), slog.String("target", target(storeCfg)))
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
	return nil
}

// target describes the store location without credentials
func target(cfg db.StoreConfig) string {
	if cfg.Driver == db.DriverSQLite {
		return cfg.SQLitePath
	}
	return db.RedactURL(cfg.URL)
}

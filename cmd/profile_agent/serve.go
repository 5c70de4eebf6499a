package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-extractor/internal/server"
)

var (
	servePort     int
	serveNoSeed   bool
	serveMaxBytes int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes video upload, technical test generation and prompt management endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveNoSeed, "no-seed", false, "Do not insert default prompts into the store on startup")
	serveCmd.Flags().Int64Var(&serveMaxBytes, "max-upload-bytes", server.DefaultMaxUploadBytes, "Largest accepted video upload")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort > 0 {
		a.cfg.Port = servePort
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if a.handle != nil && !serveNoSeed {
		// an unreachable store must not keep the service down
		n, err := a.prompts.Seed(ctx)
		if err != nil {
			a.logger.Warn("prompt seeding skipped", slog.Any("error", err))
		} else {
			a.logger.Info("prompt store seeded", slog.Int("inserted", n))
		}
	}

	srv := server.New(server.Config{
		Addr:           a.cfg.Addr(),
		MaxUploadBytes: serveMaxBytes,
	}, server.Deps{
		Pipeline: a.pipeline,
		TestGen:  a.testgen,
		Prompts:  a.prompts,
	}, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

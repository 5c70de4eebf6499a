package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/profile-extractor/internal/config"
	"github.com/jonathan/profile-extractor/internal/db"
	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/logging"
	"github.com/jonathan/profile-extractor/internal/media"
	"github.com/jonathan/profile-extractor/internal/pipeline"
	"github.com/jonathan/profile-extractor/internal/prompts"
	"github.com/jonathan/profile-extractor/internal/testgen"
)

// app holds the services shared by every command
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	handle   *db.Handle
	prompts  *prompts.Repository
	chain    *llm.Chain
	pipeline *pipeline.Pipeline
	testgen  *testgen.Generator
}

// loadConfig reads the configuration and sets up the default logger.
// Log flags override the configured values.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, logger, nil
}

// newPromptApp wires only the prompt repository and its store
func newPromptApp() (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	var store db.PromptStore
	if storeCfg := cfg.StoreConfig(); storeCfg.Enabled() {
		a.handle = db.NewHandleFromConfig(storeCfg)
		store = a.handle
		logger.Debug("prompt store configured", slog.String("driver", storeCfg.Driver))
	}
	a.prompts = prompts.NewRepository(store, logger)
	return a, nil
}

// newApp wires the full service: prompts, providers, media and both generators
func newApp(ctx context.Context) (*app, error) {
	a, err := newPromptApp()
	if err != nil {
		return nil, err
	}
	if err := a.cfg.Validate(); err != nil {
		a.Close()
		return nil, err
	}

	chain, err := llm.NewChainFromConfig(ctx, a.cfg.LLMConfig(), a.logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build provider chain: %w", err)
	}
	a.chain = chain

	ffmpeg := media.NewFFmpeg(a.cfg.MediaConfig())
	a.pipeline = pipeline.New(ffmpeg, chain, a.prompts, a.logger)
	a.testgen = testgen.New(chain, a.prompts, a.logger)
	return a, nil
}

// Close releases the provider clients and the store connection
func (a *app) Close() {
	var errs []error
	if a.chain != nil {
		errs = append(errs, a.chain.Close())
	}
	if a.handle != nil {
		errs = append(errs, a.handle.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error during shutdown", slog.Any("error", err))
	}
}

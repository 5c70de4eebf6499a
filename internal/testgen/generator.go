// Package testgen generates technical screening tests from job requirements.
package testgen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/prompts"
	"github.com/jonathan/profile-extractor/internal/types"
)

// Options are the generation settings for technical tests
var Options = llm.GenerateOptions{
	System:      "You are a senior technical recruiter. Write technical tests in well structured markdown.",
	Temperature: 0.3,
	MaxTokens:   4000,
}

// ProviderChain is the slice of llm.Chain the generator needs
type ProviderChain interface {
	Generate(ctx context.Context, body string, vars map[string]string, opts llm.GenerateOptions) (string, []llm.ProviderResult, error)
}

// PromptSource resolves prompt names to template bodies
type PromptSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// Result is a generated technical test
type Result struct {
	Markdown string
	Summary  types.ProfileSummary
	Attempts []llm.ProviderResult
}

// Response returns the boundary shape of the result
func (r *Result) Response() types.TechnicalTestResponse {
	return types.TechnicalTestResponse{
		TechnicalTestMarkdown: r.Markdown,
		ProfileSummary:        r.Summary,
	}
}

// Generator renders the technical test prompt and sends it through the chain
type Generator struct {
	chain   ProviderChain
	prompts PromptSource
	logger  *slog.Logger
}

// New creates a Generator
func New(chain ProviderChain, prompts PromptSource, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{chain: chain, prompts: prompts, logger: logger}
}

// Generate validates req and returns the model's markdown verbatim
func (g *Generator) Generate(ctx context.Context, req types.TechnicalTestRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid technical test request: %w", err)
	}

	body, err := g.prompts.Get(ctx, prompts.TechnicalTestGeneration)
	if err != nil {
		return nil, fmt.Errorf("loading technical test prompt: %w", err)
	}

	markdown, attempts, err := g.chain.Generate(ctx, body, req.Fields(), Options)
	if err != nil {
		return nil, fmt.Errorf("generating technical test: %w", err)
	}

	g.logger.Info("technical test generated",
		slog.String("profession", req.Profession),
		slog.Int("attempts", len(attempts)),
		slog.Int("length", len(markdown)))

	return &Result{
		Markdown: markdown,
		Summary:  req.Summary(),
		Attempts: attempts,
	}, nil
}

// Title returns the first markdown heading of a generated test, if any
func Title(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

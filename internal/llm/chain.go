package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonathan/profile-extractor/internal/prompts"
)

// DefaultAttemptTimeout bounds a single provider attempt
const DefaultAttemptTimeout = 60 * time.Second

// Chain tries providers in a fixed order, one attempt each, until one succeeds.
// Transcription and generation have separate lists that may overlap.
type Chain struct {
	transcribers []Transcriber
	generators   []Generator
	timeout      time.Duration
	limiters     map[string]*rate.Limiter
	logger       *slog.Logger
	// owned holds providers that are not attempted but whose resources the chain releases
	owned []Provider
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithAttemptTimeout sets the per-attempt timeout
func WithAttemptTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRequestsPerMinute caps how often each provider is called from this process.
// An attempt over budget fails immediately as rate_limited. Zero disables the cap.
func WithRequestsPerMinute(rpm int) ChainOption {
	return func(c *Chain) {
		if rpm <= 0 {
			c.limiters = nil
			return
		}
		c.limiters = make(map[string]*rate.Limiter)
		for _, name := range c.providerNames() {
			if _, ok := c.limiters[name]; !ok {
				c.limiters[name] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
			}
		}
	}
}

// WithLogger sets the logger used for attempt diagnostics
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// withOwned hands the chain providers it must close but never calls
func withOwned(providers ...Provider) ChainOption {
	return func(c *Chain) {
		for _, p := range providers {
			if p != nil {
				c.owned = append(c.owned, p)
			}
		}
	}
}

// NewChain creates a chain over the given ordered provider lists
func NewChain(transcribers []Transcriber, generators []Generator, opts ...ChainOption) *Chain {
	c := &Chain{
		transcribers: transcribers,
		generators:   generators,
		timeout:      DefaultAttemptTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe converts audio to text using the first transcriber that succeeds
func (c *Chain) Transcribe(ctx context.Context, audio Audio) (Transcript, []ProviderResult, error) {
	text, provider, results, err := attempt(ctx, c, CapabilityTranscription, c.transcribers,
		func(ctx context.Context, t Transcriber) (string, error) {
			return t.Transcribe(ctx, audio)
		})
	if err != nil {
		return Transcript{}, results, err
	}
	return Transcript{Text: text, SourceProviderID: provider}, results, nil
}

// Generate substitutes vars into the template body and completes the result
func (c *Chain) Generate(ctx context.Context, body string, vars map[string]string, opts GenerateOptions) (string, []ProviderResult, error) {
	prompt, err := prompts.Substitute(body, vars)
	if err != nil {
		return "", nil, err
	}
	return c.Complete(ctx, prompt, opts)
}

// Complete sends an already rendered prompt to the first generator that succeeds
func (c *Chain) Complete(ctx context.Context, prompt string, opts GenerateOptions) (string, []ProviderResult, error) {
	text, _, results, err := attempt(ctx, c, CapabilityGeneration, c.generators,
		func(ctx context.Context, g Generator) (string, error) {
			return g.Generate(ctx, prompt, opts)
		})
	return text, results, err
}

// Providers lists provider names for a capability in attempt order
func (c *Chain) Providers(capability Capability) []string {
	var names []string
	switch capability {
	case CapabilityTranscription:
		for _, t := range c.transcribers {
			names = append(names, t.Name())
		}
	case CapabilityGeneration:
		for _, g := range c.generators {
			names = append(names, g.Name())
		}
	}
	return names
}

// Close releases providers that hold resources
func (c *Chain) Close() error {
	providers := make([]Provider, 0, len(c.transcribers)+len(c.generators)+len(c.owned))
	for _, t := range c.transcribers {
		providers = append(providers, t)
	}
	for _, g := range c.generators {
		providers = append(providers, g)
	}
	providers = append(providers, c.owned...)
	return closeProviders(providers)
}

// closeProviders closes each io.Closer once, even if it appears several times
func closeProviders(providers []Provider) error {
	seen := make(map[io.Closer]bool)
	var errs []error
	for _, p := range providers {
		closer, ok := p.(io.Closer)
		if !ok || seen[closer] {
			continue
		}
		seen[closer] = true
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (c *Chain) providerNames() []string {
	names := c.Providers(CapabilityTranscription)
	return append(names, c.Providers(CapabilityGeneration)...)
}

// attempt runs call against each provider in order and returns the first non-empty payload
func attempt[P Provider](
	ctx context.Context,
	c *Chain,
	capability Capability,
	providers []P,
	call func(context.Context, P) (string, error),
) (payload, provider string, results []ProviderResult, err error) {
	results = make([]ProviderResult, 0, len(providers))

	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return "", "", results, fmt.Errorf("%s cancelled: %w", capability, err)
		}

		name := p.Name()
		start := time.Now()

		var text string
		var callErr error
		if limiter := c.limiters[name]; limiter != nil && !limiter.Allow() {
			callErr = &ProviderError{Provider: name, Kind: ErrorKindRateLimited, Err: errors.New("local request budget exceeded")}
		} else {
			attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
			text, callErr = call(attemptCtx, p)
			cancel()
			if callErr == nil && strings.TrimSpace(text) == "" {
				callErr = malformed(name, "empty response")
			}
		}
		latency := time.Since(start).Milliseconds()

		if callErr == nil {
			text = strings.TrimSpace(text)
			results = append(results, ProviderResult{
				ProviderID: name,
				Succeeded:  true,
				Payload:    text,
				LatencyMs:  latency,
			})
			c.logger.Debug("provider attempt succeeded",
				slog.String("capability", string(capability)),
				slog.String("provider", name),
				slog.Int64("latency_ms", latency))
			return text, name, results, nil
		}

		kind := classify(callErr)
		results = append(results, ProviderResult{
			ProviderID: name,
			ErrorKind:  kind,
			Err:        callErr,
			LatencyMs:  latency,
		})
		c.logger.Warn("provider attempt failed",
			slog.String("capability", string(capability)),
			slog.String("provider", name),
			slog.String("error_kind", string(kind)),
			slog.Int64("latency_ms", latency),
			slog.Any("error", callErr))
	}

	if err := ctx.Err(); err != nil {
		return "", "", results, fmt.Errorf("%s cancelled: %w", capability, err)
	}
	return "", "", results, &ExhaustedError{Capability: capability, Failures: results}
}

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Provider names usable in chain order lists
const (
	ProviderGroq           = "groq"
	ProviderGemini         = "gemini"
	ProviderGeminiFallback = "gemini-fallback"
	ProviderOpenRouter     = "openrouter"
	ProviderHuggingFace    = "huggingface"
)

// Config holds provider credentials, models and chain order
type Config struct {
	Groq                GroqConfig
	Gemini              GeminiConfig
	GeminiFallbackModel string
	OpenRouter          ChatConfig
	HuggingFace         ChatConfig

	// TranscriptionOrder and GenerationOrder list provider names in attempt order.
	// Providers without credentials are skipped.
	TranscriptionOrder []string
	GenerationOrder    []string

	AttemptTimeout    time.Duration
	RequestsPerMinute int
}

// DefaultConfig returns the default models and chain order with no credentials
func DefaultConfig() *Config {
	return &Config{
		Groq: GroqConfig{
			BaseURL:             GroqBaseURL,
			ChatModel:           DefaultGroqChatModel,
			WhisperModel:        DefaultGroqWhisperModel,
			TranscriptionPrompt: DefaultTranscriptionPrompt,
			Language:            DefaultTranscriptionLang,
		},
		Gemini: GeminiConfig{
			Model:                    DefaultGeminiModel,
			TranscriptionInstruction: DefaultGeminiInstruction,
		},
		GeminiFallbackModel: DefaultGeminiFallbackModel,
		OpenRouter: ChatConfig{
			BaseURL: OpenRouterBaseURL,
			Model:   DefaultOpenRouterModel,
			Title:   "profile-extractor",
		},
		HuggingFace: ChatConfig{
			BaseURL: DefaultHuggingFaceURL,
			Model:   DefaultHuggingFaceModel,
		},
		TranscriptionOrder: []string{ProviderGroq, ProviderGemini},
		GenerationOrder:    []string{ProviderGroq, ProviderGemini, ProviderOpenRouter, ProviderHuggingFace},
		AttemptTimeout:     DefaultAttemptTimeout,
	}
}

// HasAnyKey reports whether at least one provider has credentials
func (c *Config) HasAnyKey() bool {
	return c.Groq.APIKey != "" || c.Gemini.APIKey != "" ||
		c.OpenRouter.APIKey != "" || c.HuggingFace.APIKey != ""
}

func knownProvider(name string) bool {
	switch name {
	case ProviderGroq, ProviderGemini, ProviderGeminiFallback, ProviderOpenRouter, ProviderHuggingFace:
		return true
	}
	return false
}

// hasKey reports whether the named provider has credentials
func (c *Config) hasKey(name string) bool {
	switch name {
	case ProviderGroq:
		return c.Groq.APIKey != ""
	case ProviderGemini, ProviderGeminiFallback:
		return c.Gemini.APIKey != ""
	case ProviderOpenRouter:
		return c.OpenRouter.APIKey != ""
	case ProviderHuggingFace:
		return c.HuggingFace.APIKey != ""
	}
	return false
}

// NewChainFromConfig builds every credentialed provider named in the order
// lists and assembles the chain. A provider appearing in both lists is shared.
func NewChainFromConfig(ctx context.Context, cfg *Config, logger *slog.Logger) (_ *Chain, err error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.HasAnyKey() {
		return nil, fmt.Errorf("at least one provider API key is required")
	}

	httpClient := &http.Client{}
	built := make(map[string]Provider)
	var gemini *Gemini
	defer func() {
		if err != nil {
			providers := make([]Provider, 0, len(built))
			for _, p := range built {
				providers = append(providers, p)
			}
			if gemini != nil {
				providers = append(providers, gemini)
			}
			_ = closeProviders(providers)
		}
	}()

	build := func(name string) (Provider, error) {
		if p, ok := built[name]; ok {
			return p, nil
		}
		var (
			p   Provider
			err error
		)
		switch name {
		case ProviderGroq:
			p, err = NewGroq(cfg.Groq, httpClient)
		case ProviderGemini, ProviderGeminiFallback:
			if gemini == nil {
				gemini, err = NewGemini(ctx, cfg.Gemini)
				if err != nil {
					return nil, err
				}
			}
			p = gemini
			if name == ProviderGeminiFallback {
				p = gemini.WithModel(ProviderGeminiFallback, cfg.GeminiFallbackModel)
			}
		case ProviderOpenRouter:
			p, err = NewOpenRouter(cfg.OpenRouter, httpClient)
		case ProviderHuggingFace:
			p, err = NewHuggingFace(cfg.HuggingFace, httpClient)
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		if err != nil {
			return nil, err
		}
		built[name] = p
		return p, nil
	}

	for _, name := range append(append([]string{}, cfg.TranscriptionOrder...), cfg.GenerationOrder...) {
		if !knownProvider(name) {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}

	var transcribers []Transcriber
	for _, name := range cfg.TranscriptionOrder {
		if !cfg.hasKey(name) {
			logger.Debug("skipping provider without credentials", slog.String("provider", name), slog.String("capability", string(CapabilityTranscription)))
			continue
		}
		p, buildErr := build(name)
		if buildErr != nil {
			return nil, buildErr
		}
		t, ok := p.(Transcriber)
		if !ok {
			return nil, fmt.Errorf("provider %q cannot transcribe audio", name)
		}
		transcribers = append(transcribers, t)
	}

	var generators []Generator
	for _, name := range cfg.GenerationOrder {
		if !cfg.hasKey(name) {
			logger.Debug("skipping provider without credentials", slog.String("provider", name), slog.String("capability", string(CapabilityGeneration)))
			continue
		}
		p, buildErr := build(name)
		if buildErr != nil {
			return nil, buildErr
		}
		g, ok := p.(Generator)
		if !ok {
			return nil, fmt.Errorf("provider %q cannot generate text", name)
		}
		generators = append(generators, g)
	}

	chain := NewChain(transcribers, generators,
		WithAttemptTimeout(cfg.AttemptTimeout),
		WithLogger(logger),
		WithRequestsPerMinute(cfg.RequestsPerMinute),
	)
	// the fallback model shares the base client, which only the base adapter closes
	if gemini != nil {
		withOwned(gemini)(chain)
	}
	logger.Info("provider chain ready",
		slog.Any("transcription", chain.Providers(CapabilityTranscription)),
		slog.Any("generation", chain.Providers(CapabilityGeneration)))
	return chain, nil
}

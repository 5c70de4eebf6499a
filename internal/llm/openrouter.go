package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OpenRouter defaults
const (
	OpenRouterBaseURL       = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel  = "meta-llama/llama-3.2-3b-instruct:free"
	DefaultHuggingFaceURL   = "https://router.huggingface.co/v1"
	DefaultHuggingFaceModel = "meta-llama/Llama-3.2-3B-Instruct"
)

// ChatConfig configures an OpenAI-compatible generation provider
type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Referer and Title identify the application to OpenRouter
	Referer string
	Title   string
}

// ChatProvider is a generation-only provider behind an OpenAI-compatible API
type ChatProvider struct {
	chat *chatClient
}

// NewOpenRouter creates the OpenRouter adapter
func NewOpenRouter(cfg ChatConfig, httpClient *http.Client) (*ChatProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenRouterModel
	}
	p, err := newChatProvider(ProviderOpenRouter, cfg, httpClient)
	if err != nil {
		return nil, err
	}
	if cfg.Referer != "" {
		p.chat.headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		p.chat.headers["X-Title"] = cfg.Title
	}
	return p, nil
}

// NewHuggingFace creates the HuggingFace inference router adapter
func NewHuggingFace(cfg ChatConfig, httpClient *http.Client) (*ChatProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHuggingFaceURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultHuggingFaceModel
	}
	return newChatProvider(ProviderHuggingFace, cfg, httpClient)
}

func newChatProvider(name string, cfg ChatConfig, httpClient *http.Client) (*ChatProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}
	return &ChatProvider{chat: newChatClient(name, cfg.APIKey, cfg.BaseURL, cfg.Model, httpClient)}, nil
}

// Name implements Provider
func (p *ChatProvider) Name() string { return p.chat.provider }

// Generate implements Generator
func (p *ChatProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	return p.chat.complete(ctx, prompt, opts)
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Gemini defaults
const (
	DefaultGeminiModel         = "gemini-2.0-flash"
	DefaultGeminiFallbackModel = "gemini-pro"
	DefaultGeminiInstruction   = "Transcribe this audio. Provide only the speech transcription, without additional comments or formatting."
)

// GeminiConfig configures the Gemini adapter
type GeminiConfig struct {
	APIKey string
	Model  string
	// TranscriptionInstruction is sent ahead of the audio part
	TranscriptionInstruction string
	// Endpoint overrides the API endpoint (tests, proxies)
	Endpoint string
}

// Gemini implements Transcriber and Generator for Google Gemini
type Gemini struct {
	name        string
	client      *genai.Client
	model       string
	instruction string
	ownsClient  bool
}

// NewGemini creates a Gemini adapter
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.TranscriptionInstruction == "" {
		cfg.TranscriptionInstruction = DefaultGeminiInstruction
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		name:        ProviderGemini,
		client:      client,
		model:       cfg.Model,
		instruction: cfg.TranscriptionInstruction,
		ownsClient:  true,
	}, nil
}

// WithModel returns a second provider sharing this client but calling another model.
// Only the original adapter closes the client.
func (g *Gemini) WithModel(name, model string) *Gemini {
	return &Gemini{
		name:        name,
		client:      g.client,
		model:       model,
		instruction: g.instruction,
	}
}

// Name implements Provider
func (g *Gemini) Name() string { return g.name }

// Generate implements Generator
func (g *Gemini) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(opts.Temperature)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(opts.System)}}
	}
	if opts.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", g.wrapError(err)
	}
	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", malformed(g.name, "%v", err)
	}
	if opts.JSON {
		text = CleanJSONBlock(text)
	}
	return text, nil
}

// Transcribe implements Transcriber by sending the audio inline with an instruction
func (g *Gemini) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("audio is empty")
	}
	mimeType := audio.MIMEType
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx,
		genai.Text(g.instruction),
		genai.Blob{MIMEType: mimeType, Data: audio.Data},
	)
	if err != nil {
		return "", g.wrapError(err)
	}
	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", malformed(g.name, "%v", err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases resources held by the client
func (g *Gemini) Close() error {
	if g.ownsClient && g.client != nil {
		return g.client.Close()
	}
	return nil
}

// wrapError classifies SDK errors into provider failure kinds
func (g *Gemini) wrapError(err error) error {
	pe := &ProviderError{Provider: g.name, Kind: classify(err), Err: err}

	var apiErr *googleapi.Error
	var blocked *genai.BlockedError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.Code
		pe.Kind = kindForStatus(apiErr.Code)
		if apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key") {
			pe.Kind = ErrorKindAuthRejected
		}
	case errors.As(err, &blocked):
		pe.Kind = ErrorKindMalformedResponse
	case pe.Kind == ErrorKindUnavailable:
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "api key"), strings.Contains(msg, "permission"):
			pe.Kind = ErrorKindAuthRejected
		case strings.Contains(msg, "quota"), strings.Contains(msg, "resource exhausted"):
			pe.Kind = ErrorKindRateLimited
		}
	}
	return pe
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

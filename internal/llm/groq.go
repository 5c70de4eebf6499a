package llm

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Groq defaults
const (
	GroqBaseURL                = "https://api.groq.com/openai/v1"
	DefaultGroqChatModel       = "llama-3.1-8b-instant"
	DefaultGroqWhisperModel    = "whisper-large-v3"
	DefaultTranscriptionPrompt = "Transcribe this professional presentation accurately."
	DefaultTranscriptionLang   = "es"
)

// GroqConfig configures the Groq adapter
type GroqConfig struct {
	APIKey              string
	BaseURL             string
	ChatModel           string
	WhisperModel        string
	TranscriptionPrompt string
	Language            string
}

// Groq transcribes with Whisper and generates with a hosted chat model
type Groq struct {
	chat   *chatClient
	config GroqConfig
}

// NewGroq creates a Groq adapter
func NewGroq(cfg GroqConfig, httpClient *http.Client) (*Groq, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqBaseURL
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultGroqChatModel
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = DefaultGroqWhisperModel
	}
	return &Groq{
		chat:   newChatClient(ProviderGroq, cfg.APIKey, cfg.BaseURL, cfg.ChatModel, httpClient),
		config: cfg,
	}, nil
}

// Name implements Provider
func (g *Groq) Name() string { return ProviderGroq }

// Generate implements Generator
func (g *Groq) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	return g.chat.complete(ctx, prompt, opts)
}

// Transcribe implements Transcriber using the audio transcriptions endpoint
func (g *Groq) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("audio is empty")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := audio.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if audio.MIMEType != "" {
		header.Set("Content-Type", audio.MIMEType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}

	fields := map[string]string{
		"model":           g.config.WhisperModel,
		"response_format": "text",
		"prompt":          g.config.TranscriptionPrompt,
		"language":        g.config.Language,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.chat.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := g.chat.do(req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

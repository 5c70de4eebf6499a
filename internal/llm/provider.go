// Package llm routes transcription and text generation through an ordered
// chain of interchangeable AI providers.
package llm

import "context"

// Capability is a kind of work a provider can perform
type Capability string

const (
	// CapabilityTranscription turns speech audio into text
	CapabilityTranscription Capability = "transcription"
	// CapabilityGeneration completes a text prompt
	CapabilityGeneration Capability = "generation"
)

// Audio is an extracted speech track ready for transcription
type Audio struct {
	Data     []byte
	MIMEType string
	Filename string
}

// NewWAV wraps mono PCM/WAV bytes produced by the media extractor
func NewWAV(data []byte) Audio {
	return Audio{Data: data, MIMEType: "audio/wav", Filename: "audio.wav"}
}

// GenerateOptions tunes a single generation request
type GenerateOptions struct {
	// System is an optional system instruction sent ahead of the prompt
	System      string
	Temperature float32
	// MaxTokens of 0 leaves the provider default
	MaxTokens int
	// JSON asks the provider for a JSON-only response where supported
	JSON bool
}

// Provider is one concrete integration with a third-party AI backend
type Provider interface {
	// Name identifies the provider in results and logs
	Name() string
}

// Transcriber is a provider that can transcribe audio
type Transcriber interface {
	Provider
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Generator is a provider that can complete a prompt
type Generator interface {
	Provider
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

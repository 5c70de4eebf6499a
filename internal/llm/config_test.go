package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultGroqWhisperModel, cfg.Groq.WhisperModel)
	assert.Equal(t, DefaultGeminiModel, cfg.Gemini.Model)
	assert.Equal(t, []string{ProviderGroq, ProviderGemini}, cfg.TranscriptionOrder)
	assert.Equal(t, []string{ProviderGroq, ProviderGemini, ProviderOpenRouter, ProviderHuggingFace}, cfg.GenerationOrder)
	assert.False(t, cfg.HasAnyKey())
}

func TestNewChainFromConfig_RequiresKey(t *testing.T) {
	_, err := NewChainFromConfig(context.Background(), DefaultConfig(), nil)
	assert.ErrorContains(t, err, "at least one provider API key")
}

func TestNewChainFromConfig_SkipsProvidersWithoutKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Groq.APIKey = "gsk"
	cfg.HuggingFace.APIKey = "hf"

	chain, err := NewChainFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer chain.Close()

	assert.Equal(t, []string{ProviderGroq}, chain.Providers(CapabilityTranscription))
	assert.Equal(t, []string{ProviderGroq, ProviderHuggingFace}, chain.Providers(CapabilityGeneration))
}

func TestNewChainFromConfig_RejectsTranscriptionWithoutCapability(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenRouter.APIKey = "or"
	cfg.TranscriptionOrder = []string{ProviderOpenRouter}

	_, err := NewChainFromConfig(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "cannot transcribe")
}

func TestNewChainFromConfig_UnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Groq.APIKey = "gsk"
	cfg.GenerationOrder = []string{"mistral"}

	_, err := NewChainFromConfig(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, `unknown provider "mistral"`)
}

func TestNewChainFromConfig_FallbackOnlyGeminiClosesClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gemini.APIKey = "gk"
	cfg.TranscriptionOrder = nil
	cfg.GenerationOrder = []string{ProviderGeminiFallback}

	chain, err := NewChainFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{ProviderGeminiFallback}, chain.Providers(CapabilityGeneration))
	require.Len(t, chain.owned, 1)
	owner, ok := chain.owned[0].(*Gemini)
	require.True(t, ok)
	assert.True(t, owner.ownsClient)
	assert.Equal(t, ProviderGemini, owner.Name())

	fallback, ok := chain.generators[0].(*Gemini)
	require.True(t, ok)
	assert.False(t, fallback.ownsClient)
	assert.Same(t, owner.client, fallback.client)

	assert.NoError(t, chain.Close())
}

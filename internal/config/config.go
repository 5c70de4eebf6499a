// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/profile-extractor/internal/db"
	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/media"
)

// Defaults for values not set by the environment or the config file
const (
	DefaultPort                   = 9000
	DefaultProviderTimeoutSeconds = 60
	DefaultMediaMaxConcurrency    = 2
	DefaultFFmpegPath             = "ffmpeg"
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "text"
	DefaultSQLitePath             = "prompts.db"
)

// Config holds every setting the service reads at startup.
// Empty and zero values mean "not set" and are filled by later sources.
type Config struct {
	// Provider credentials; at least one is required
	GroqAPIKey        string `yaml:"groq_api_key,omitempty"`
	GeminiAPIKey      string `yaml:"gemini_api_key,omitempty"`
	HuggingFaceAPIKey string `yaml:"huggingface_api_key,omitempty"`
	OpenRouterAPIKey  string `yaml:"openrouter_api_key,omitempty"`

	// Models
	GroqChatModel       string `yaml:"groq_chat_model,omitempty"`
	GroqWhisperModel    string `yaml:"groq_whisper_model,omitempty"`
	GeminiModel         string `yaml:"gemini_model,omitempty"`
	GeminiFallbackModel string `yaml:"gemini_fallback_model,omitempty"`
	HuggingFaceModel    string `yaml:"huggingface_model,omitempty"`
	OpenRouterModel     string `yaml:"openrouter_model,omitempty"`
	OpenRouterBaseURL   string `yaml:"openrouter_base_url,omitempty"`
	TranscriptionLang   string `yaml:"transcription_language,omitempty"`

	// Chain
	TranscriptionProviders []string `yaml:"transcription_providers,omitempty"`
	GenerationProviders    []string `yaml:"generation_providers,omitempty"`
	ProviderTimeoutSeconds int      `yaml:"provider_timeout_seconds,omitempty"`
	ProviderMaxRPM         int      `yaml:"provider_max_rpm,omitempty"`

	// Media
	FFmpegPath          string `yaml:"ffmpeg_path,omitempty"`
	AudioSampleRate     string `yaml:"audio_sample_rate,omitempty"`
	AudioChannels       string `yaml:"audio_channels,omitempty"`
	MediaMaxConcurrency int    `yaml:"media_max_concurrency,omitempty"`

	// Prompt store
	PromptStore string `yaml:"prompt_store,omitempty"` // "postgres", "sqlite" or empty for defaults only
	DatabaseURL string `yaml:"database_url,omitempty"`
	DBHost      string `yaml:"db_host,omitempty"`
	DBPort      string `yaml:"db_port,omitempty"`
	DBUser      string `yaml:"db_user,omitempty"`
	DBPassword  string `yaml:"db_password,omitempty"`
	DBName      string `yaml:"db_name,omitempty"`
	SQLitePath  string `yaml:"sqlite_path,omitempty"`

	// Server and logging
	Port      int    `yaml:"port,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`
}

// Defaults returns the built-in values used for anything left unset
func Defaults() Config {
	return Config{
		GroqChatModel:          llm.DefaultGroqChatModel,
		GroqWhisperModel:       llm.DefaultGroqWhisperModel,
		GeminiModel:            llm.DefaultGeminiModel,
		GeminiFallbackModel:    llm.DefaultGeminiFallbackModel,
		HuggingFaceModel:       llm.DefaultHuggingFaceModel,
		OpenRouterModel:        llm.DefaultOpenRouterModel,
		OpenRouterBaseURL:      llm.OpenRouterBaseURL,
		TranscriptionLang:      llm.DefaultTranscriptionLang,
		TranscriptionProviders: []string{llm.ProviderGroq, llm.ProviderGemini},
		GenerationProviders:    []string{llm.ProviderGroq, llm.ProviderGemini, llm.ProviderOpenRouter, llm.ProviderHuggingFace},
		ProviderTimeoutSeconds: DefaultProviderTimeoutSeconds,
		FFmpegPath:             DefaultFFmpegPath,
		AudioSampleRate:        media.DefaultSampleRate,
		AudioChannels:          media.DefaultChannels,
		MediaMaxConcurrency:    DefaultMediaMaxConcurrency,
		SQLitePath:             DefaultSQLitePath,
		Port:                   DefaultPort,
		LogLevel:               DefaultLogLevel,
		LogFormat:              DefaultLogFormat,
	}
}

// Load builds the configuration from the environment, then the optional YAML
// file at path, then Defaults. Earlier sources win.
func Load(path string) (*Config, error) {
	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}

	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		merged := cfg.MergeWithDefaults(*file)
		cfg = &merged
	}

	merged := cfg.MergeWithDefaults(Defaults())
	return &merged, nil
}

// FromEnv reads every setting from getenv. Nothing is defaulted.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	cfg := &Config{
		GroqAPIKey:             env("GROQ_API_KEY"),
		GeminiAPIKey:           env("GEMINI_API_KEY"),
		HuggingFaceAPIKey:      env("HUGGINGFACE_API_KEY"),
		OpenRouterAPIKey:       env("OPENROUTER_API_KEY"),
		GroqChatModel:          env("GROQ_CHAT_MODEL"),
		GroqWhisperModel:       env("GROQ_WHISPER_MODEL"),
		GeminiModel:            env("GEMINI_MODEL"),
		GeminiFallbackModel:    env("GEMINI_FALLBACK_MODEL"),
		HuggingFaceModel:       env("HUGGINGFACE_MODEL"),
		OpenRouterModel:        env("OPENROUTER_MODEL"),
		OpenRouterBaseURL:      env("OPENROUTER_BASE_URL"),
		TranscriptionLang:      env("TRANSCRIPTION_LANGUAGE"),
		TranscriptionProviders: splitList(env("TRANSCRIPTION_PROVIDERS")),
		GenerationProviders:    splitList(env("GENERATION_PROVIDERS")),
		FFmpegPath:             env("FFMPEG_PATH"),
		AudioSampleRate:        env("AUDIO_SAMPLE_RATE"),
		AudioChannels:          env("AUDIO_CHANNELS"),
		PromptStore:            strings.ToLower(env("PROMPT_STORE")),
		DatabaseURL:            env("DATABASE_URL"),
		DBHost:                 env("DB_HOST"),
		DBPort:                 env("DB_PORT"),
		DBUser:                 env("DB_USER"),
		DBPassword:             env("DB_PASSWORD"),
		DBName:                 env("DB_NAME"),
		SQLitePath:             env("SQLITE_PATH"),
		LogLevel:               env("LOG_LEVEL"),
		LogFormat:              env("LOG_FORMAT"),
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PROVIDER_TIMEOUT_SECONDS", &cfg.ProviderTimeoutSeconds},
		{"PROVIDER_MAX_RPM", &cfg.ProviderMaxRPM},
		{"MEDIA_MAX_CONCURRENCY", &cfg.MediaMaxConcurrency},
		{"PORT", &cfg.Port},
	}
	for _, i := range ints {
		raw := env(i.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config error: %s must be an integer, got %q", i.key, raw)
		}
		*i.dst = n
	}

	return cfg, nil
}

// LoadFile loads configuration from a YAML file.
// Returns an error if the file cannot be read or parsed.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	cfg.PromptStore = strings.ToLower(cfg.PromptStore)

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" && c.GeminiAPIKey == "" && c.HuggingFaceAPIKey == "" && c.OpenRouterAPIKey == "" {
		return errors.New("config error: at least one of GROQ_API_KEY, GEMINI_API_KEY, HUGGINGFACE_API_KEY or OPENROUTER_API_KEY must be set")
	}

	switch c.PromptStore {
	case "", db.DriverSQLite:
	case db.DriverPostgres:
		if c.DatabaseURL == "" && c.DBName == "" {
			return errors.New("config error: PROMPT_STORE=postgres needs DATABASE_URL or DB_NAME")
		}
	default:
		return fmt.Errorf("config error: unknown PROMPT_STORE %q (want postgres or sqlite)", c.PromptStore)
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.ProviderTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'provider_timeout_seconds' must be non-negative")
	}
	if c.ProviderMaxRPM < 0 {
		return fmt.Errorf("config error: 'provider_max_rpm' must be non-negative")
	}
	if c.MediaMaxConcurrency < 0 {
		return fmt.Errorf("config error: 'media_max_concurrency' must be non-negative")
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	strs := []struct {
		dst *string
		def string
	}{
		{&result.GroqAPIKey, defaults.GroqAPIKey},
		{&result.GeminiAPIKey, defaults.GeminiAPIKey},
		{&result.HuggingFaceAPIKey, defaults.HuggingFaceAPIKey},
		{&result.OpenRouterAPIKey, defaults.OpenRouterAPIKey},
		{&result.GroqChatModel, defaults.GroqChatModel},
		{&result.GroqWhisperModel, defaults.GroqWhisperModel},
		{&result.GeminiModel, defaults.GeminiModel},
		{&result.GeminiFallbackModel, defaults.GeminiFallbackModel},
		{&result.HuggingFaceModel, defaults.HuggingFaceModel},
		{&result.OpenRouterModel, defaults.OpenRouterModel},
		{&result.OpenRouterBaseURL, defaults.OpenRouterBaseURL},
		{&result.TranscriptionLang, defaults.TranscriptionLang},
		{&result.FFmpegPath, defaults.FFmpegPath},
		{&result.AudioSampleRate, defaults.AudioSampleRate},
		{&result.AudioChannels, defaults.AudioChannels},
		{&result.PromptStore, defaults.PromptStore},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.DBHost, defaults.DBHost},
		{&result.DBPort, defaults.DBPort},
		{&result.DBUser, defaults.DBUser},
		{&result.DBPassword, defaults.DBPassword},
		{&result.DBName, defaults.DBName},
		{&result.SQLitePath, defaults.SQLitePath},
		{&result.LogLevel, defaults.LogLevel},
		{&result.LogFormat, defaults.LogFormat},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = s.def
		}
	}

	ints := []struct {
		dst *int
		def int
	}{
		{&result.ProviderTimeoutSeconds, defaults.ProviderTimeoutSeconds},
		{&result.ProviderMaxRPM, defaults.ProviderMaxRPM},
		{&result.MediaMaxConcurrency, defaults.MediaMaxConcurrency},
		{&result.Port, defaults.Port},
	}
	for _, i := range ints {
		if *i.dst == 0 {
			*i.dst = i.def
		}
	}

	if len(result.TranscriptionProviders) == 0 {
		result.TranscriptionProviders = append([]string(nil), defaults.TranscriptionProviders...)
	}
	if len(result.GenerationProviders) == 0 {
		result.GenerationProviders = append([]string(nil), defaults.GenerationProviders...)
	}

	return result
}

// LLMConfig converts the settings into the provider chain configuration
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	cfg.Groq.APIKey = c.GroqAPIKey
	setIf(&cfg.Groq.ChatModel, c.GroqChatModel)
	setIf(&cfg.Groq.WhisperModel, c.GroqWhisperModel)
	setIf(&cfg.Groq.Language, c.TranscriptionLang)

	cfg.Gemini.APIKey = c.GeminiAPIKey
	setIf(&cfg.Gemini.Model, c.GeminiModel)
	setIf(&cfg.GeminiFallbackModel, c.GeminiFallbackModel)

	cfg.OpenRouter.APIKey = c.OpenRouterAPIKey
	setIf(&cfg.OpenRouter.Model, c.OpenRouterModel)
	setIf(&cfg.OpenRouter.BaseURL, c.OpenRouterBaseURL)

	cfg.HuggingFace.APIKey = c.HuggingFaceAPIKey
	setIf(&cfg.HuggingFace.Model, c.HuggingFaceModel)

	if len(c.TranscriptionProviders) > 0 {
		cfg.TranscriptionOrder = c.TranscriptionProviders
	}
	if len(c.GenerationProviders) > 0 {
		cfg.GenerationOrder = c.GenerationProviders
	}
	if c.ProviderTimeoutSeconds > 0 {
		cfg.AttemptTimeout = time.Duration(c.ProviderTimeoutSeconds) * time.Second
	}
	cfg.RequestsPerMinute = c.ProviderMaxRPM
	return cfg
}

// StoreConfig converts the settings into the prompt store descriptor.
// A postgres store without DATABASE_URL is assembled from the DB_* parts.
func (c *Config) StoreConfig() db.StoreConfig {
	cfg := db.StoreConfig{
		Driver:      c.PromptStore,
		URL:         c.DatabaseURL,
		SQLitePath:  c.SQLitePath,
		AutoMigrate: true,
	}
	if cfg.Driver == db.DriverPostgres && cfg.URL == "" && c.DBName != "" {
		cfg.URL = db.ConnectionURL(c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	}
	return cfg
}

// MediaConfig converts the settings into the ffmpeg extractor configuration
func (c *Config) MediaConfig() media.Config {
	return media.Config{
		FFmpegPath:     c.FFmpegPath,
		SampleRate:     c.AudioSampleRate,
		Channels:       c.AudioChannels,
		MaxConcurrency: int64(c.MediaMaxConcurrency),
	}
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// splitList parses a comma separated list, dropping empty entries
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

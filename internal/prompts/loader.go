// Package prompts supplies the prompt templates that drive generation.
// Built-in defaults are embedded at compile time; stored overrides are
// read through a Repository.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Names of the built-in prompts
const (
	ProfileExtraction       = "profile_extraction"
	CVGeneration            = "cv_generation"
	TechnicalTestGeneration = "technical_test_generation"
)

//go:embed defaults.json
var promptFiles embed.FS

const defaultsFile = "defaults.json"

// DefaultPrompt is a compiled-in template
type DefaultPrompt struct {
	Description string   `json:"description"`
	Template    string   `json:"template"`
	Variables   []string `json:"variables"`
}

// cache stores the parsed defaults file to avoid repeated JSON parsing
var (
	cache   map[string]DefaultPrompt
	cacheMu sync.RWMutex
)

// Default returns the built-in prompt for name
func Default(name string) (DefaultPrompt, bool) {
	defaults, err := loadDefaults()
	if err != nil {
		return DefaultPrompt{}, false
	}
	p, ok := defaults[name]
	return p, ok
}

// MustDefault returns the built-in prompt for name, panicking if it does not exist.
// Use this for prompts that are required at initialization time.
func MustDefault(name string) DefaultPrompt {
	defaults, err := loadDefaults()
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt defaults: %v", err))
	}
	p, ok := defaults[name]
	if !ok {
		panic(fmt.Sprintf("no default prompt named %q", name))
	}
	return p
}

// DefaultNames returns the names of all built-in prompts in lexical order
func DefaultNames() []string {
	defaults, err := loadDefaults()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadDefaults loads and caches the embedded defaults file
func loadDefaults() (map[string]DefaultPrompt, error) {
	cacheMu.RLock()
	if cache != nil {
		defer cacheMu.RUnlock()
		return cache, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(defaultsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", defaultsFile, err)
	}

	var defaults map[string]DefaultPrompt
	if err := json.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", defaultsFile, err)
	}

	cacheMu.Lock()
	cache = defaults
	cacheMu.Unlock()

	return defaults, nil
}

package db

import (
	"fmt"
	"strings"
	"time"
)

// PromptTemplate represents a named prompt body with {placeholder} tokens.
// Placeholder completeness is checked when the body is rendered, not here.
type PromptTemplate struct {
	Name        string    `json:"name"`
	Body        string    `json:"template"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *PromptTemplate) validate() error {
	if t == nil {
		return fmt.Errorf("prompt template is nil")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("prompt name cannot be empty")
	}
	return nil
}

func (t *PromptTemplate) updatedAtOrNow() time.Time {
	if t.UpdatedAt.IsZero() {
		return time.Now().UTC()
	}
	return t.UpdatedAt.UTC()
}

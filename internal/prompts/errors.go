package prompts

import (
	"errors"
	"fmt"

	"github.com/jonathan/profile-extractor/internal/db"
)

var (
	// ErrPromptNotFound is returned when neither the store nor the defaults hold a prompt
	ErrPromptNotFound = errors.New("prompt not found")
	// ErrMissingPlaceholder is returned when a template references a variable that was not supplied
	ErrMissingPlaceholder = errors.New("missing placeholder")
	// ErrInvalidPrompt is returned for writes with an empty name or body
	ErrInvalidPrompt = errors.New("invalid prompt")
	// ErrStoreUnavailable is returned by writes when the store cannot be reached
	ErrStoreUnavailable = db.ErrStoreUnavailable
)

// MissingPlaceholderError names the first template token without a value
type MissingPlaceholderError struct {
	Name string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("missing placeholder {%s}", e.Name)
}

// Is lets errors.Is match ErrMissingPlaceholder
func (e *MissingPlaceholderError) Is(target error) bool {
	return target == ErrMissingPlaceholder
}

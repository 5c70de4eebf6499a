package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/media"
	"github.com/jonathan/profile-extractor/internal/prompts"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		fieldErrs  validator.ValidationErrors
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &fieldErrs), errors.Is(err, prompts.ErrMissingPlaceholder),
		errors.Is(err, prompts.ErrInvalidPrompt):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, media.ErrMediaProcessing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, prompts.ErrPromptNotFound):
		return http.StatusNotFound
	case errors.Is(err, llm.ErrAllProvidersExhausted), errors.Is(err, prompts.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

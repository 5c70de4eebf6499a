package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind classifies why a provider attempt failed
type ErrorKind string

// Provider failure kinds
const (
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindAuthRejected      ErrorKind = "auth_rejected"
	ErrorKindRateLimited       ErrorKind = "rate_limited"
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
	ErrorKindUnavailable       ErrorKind = "unavailable"
)

// ErrAllProvidersExhausted matches any *ExhaustedError
var ErrAllProvidersExhausted = errors.New("all providers exhausted")

// ProviderError is a single failed attempt against a provider
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned when every provider configured for a capability failed
type ExhaustedError struct {
	Capability Capability
	Failures   []ProviderResult
}

func (e *ExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s: %s: no providers configured", ErrAllProvidersExhausted, e.Capability)
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s=%s", f.ProviderID, f.ErrorKind))
	}
	return fmt.Sprintf("%s: %s: %s", ErrAllProvidersExhausted, e.Capability, strings.Join(parts, ", "))
}

// Is lets errors.Is match ErrAllProvidersExhausted
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllProvidersExhausted
}

// statusError builds a ProviderError from a non-2xx HTTP response
func statusError(provider string, status int, body string) *ProviderError {
	var err error
	if body = strings.TrimSpace(body); body != "" {
		if len(body) > 300 {
			body = body[:300] + "..."
		}
		err = errors.New(body)
	}
	return &ProviderError{
		Provider:   provider,
		Kind:       kindForStatus(status),
		StatusCode: status,
		Err:        err,
	}
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrorKindAuthRejected
	case status == http.StatusTooManyRequests:
		return ErrorKindRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ErrorKindTimeout
	default:
		return ErrorKindUnavailable
	}
}

// malformed reports a response that arrived but could not be used
func malformed(provider, format string, args ...any) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     ErrorKindMalformedResponse,
		Err:      fmt.Errorf(format, args...),
	}
}

// classify maps any adapter error to a failure kind
func classify(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}
	return ErrorKindUnavailable
}

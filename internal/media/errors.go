package media

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMediaProcessing matches any *ProcessingError
var ErrMediaProcessing = errors.New("media processing failed")

// ProcessingError represents a failed audio extraction
type ProcessingError struct {
	Path    string
	Message string
	Stderr  string
	Cause   error
}

func (e *ProcessingError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrMediaProcessing, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match ErrMediaProcessing
func (e *ProcessingError) Is(target error) bool {
	return target == ErrMediaProcessing
}

// lastLine returns the last non-empty line of ffmpeg's stderr, which carries the actual error
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

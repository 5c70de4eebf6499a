// Package llm - util.go provides shared utilities for model response processing.
package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONBlock strips markdown fences and surrounding prose from a model
// response that should contain a JSON value. Models often wrap JSON in ```json
// blocks or add a sentence before it even when told not to. When no balanced
// JSON value can be found the trimmed text is returned unchanged, so callers
// can still scan truncated output.
func CleanJSONBlock(text string) string {
	text = stripFence(strings.TrimSpace(text))

	// bracketed prose such as "[JSON]" is skipped; a value that never closes stops the search
	for offset := 0; offset < len(text); {
		i := strings.IndexAny(text[offset:], "{[")
		if i < 0 {
			break
		}
		start := offset + i

		var value string
		if text[start] == '{' {
			value = extractJSONObject(text[start:])
		} else {
			value = extractJSONArray(text[start:])
		}
		if value == "" {
			break
		}
		if json.Valid([]byte(value)) {
			return value
		}
		offset = start + len(value)
	}
	return text
}

// stripFence returns the body of the first ``` block in text, if there is one
func stripFence(text string) string {
	idx := strings.Index(text, "```")
	if idx < 0 {
		return text
	}
	body := text[idx+3:]

	// Skip a language identifier on the fence line
	if nl := strings.Index(body, "\n"); nl >= 0 {
		firstLine := strings.TrimSpace(body[:nl])
		if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.ContainsAny(firstLine, "{[") {
			body = body[nl+1:]
		}
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// extractJSONObject returns the balanced object at the start of s, or "" if s
// does not start with one.
func extractJSONObject(s string) string {
	return extractBalanced(s, '{', '}')
}

// extractJSONArray returns the balanced array at the start of s, or "" if s
// does not start with one.
func extractJSONArray(s string) string {
	return extractBalanced(s, '[', ']')
}

func extractBalanced(s string, open, closing byte) string {
	if s == "" || s[0] != open {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

package media

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SaveTemp copies r into a new temporary file with the given extension.
// The returned cleanup removes the file and is safe to call more than once.
func SaveTemp(r io.Reader, ext string) (path string, cleanup func(), err error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	f, err := os.CreateTemp("", "profile-upload-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path = f.Name()
	cleanup = func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("failed to delete temp file", slog.String("path", path), slog.Any("error", rmErr))
		}
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	return path, cleanup, nil
}

// Extension returns the lowercase extension of filename, defaulting to ".mp4"
func Extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ".mp4"
	}
	return ext
}

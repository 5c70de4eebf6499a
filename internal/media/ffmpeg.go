// Package media extracts speech audio from uploaded video files with ffmpeg.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/semaphore"
)

// Audio format sent to transcription providers
const (
	DefaultSampleRate = "16000"
	DefaultChannels   = "1"
	// wavHeaderSize is the size of a canonical PCM WAV header with no samples
	wavHeaderSize = 44
)

// Config configures the ffmpeg extractor
type Config struct {
	FFmpegPath     string
	SampleRate     string
	Channels       string
	MaxConcurrency int64
}

// FFmpeg converts video containers to mono PCM WAV
type FFmpeg struct {
	path       string
	sampleRate string
	channels   string
	sem        *semaphore.Weighted
}

// NewFFmpeg creates an extractor. At most MaxConcurrency ffmpeg processes run at once.
func NewFFmpeg(cfg Config) *FFmpeg {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.SampleRate == "" {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Channels == "" {
		cfg.Channels = DefaultChannels
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 2
	}
	return &FFmpeg{
		path:       cfg.FFmpegPath,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrency),
	}
}

// Args returns the ffmpeg arguments used to extract audio from videoPath.
// Output goes to stdout as WAV.
func (f *FFmpeg) Args(videoPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", f.sampleRate,
		"-ac", f.channels,
		"-f", "wav",
		"pipe:1",
	}
}

// ExtractAudio returns the speech track of videoPath as mono PCM WAV bytes.
// Corrupt input, unsupported codecs and empty audio streams yield a *ProcessingError.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath string) ([]byte, error) {
	info, err := os.Stat(videoPath)
	if err != nil {
		return nil, &ProcessingError{Path: videoPath, Message: "cannot read video file", Cause: err}
	}
	if info.Size() == 0 {
		return nil, &ProcessingError{Path: videoPath, Message: "video file is empty"}
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for ffmpeg slot: %w", err)
	}
	defer f.sem.Release(1)

	cmd := exec.CommandContext(ctx, f.path, f.Args(videoPath)...)
	var stdout bytes.Buffer
	var stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("audio extraction interrupted: %w", ctxErr)
		}
		// the input was stat'ed above, so a missing file here is the binary
		var execErr *exec.Error
		if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("ffmpeg not available at %q: %w", f.path, err)
		}
		return nil, &ProcessingError{
			Path:    videoPath,
			Message: "ffmpeg failed",
			Stderr:  stderr.String(),
			Cause:   err,
		}
	}

	if stdout.Len() <= wavHeaderSize {
		return nil, &ProcessingError{Path: videoPath, Message: "no audio stream in video", Stderr: stderr.String()}
	}
	return stdout.Bytes(), nil
}

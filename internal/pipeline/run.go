// Package pipeline turns a presentation video into a structured profile and a narrative CV.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/prompts"
	"github.com/jonathan/profile-extractor/internal/types"
)

// Stage identifies one step of the extraction pipeline
type Stage string

// Pipeline stages in execution order
const (
	StageAudioExtraction Stage = "audio-extraction"
	StageTranscription   Stage = "transcription"
	StageFieldExtraction Stage = "field-extraction"
	StageCVGeneration    Stage = "cv-generation"
)

// Stages lists every stage in execution order
var Stages = []Stage{StageAudioExtraction, StageTranscription, StageFieldExtraction, StageCVGeneration}

// Generation settings per stage
var (
	FieldExtractionOptions = llm.GenerateOptions{
		System:      "You extract professional profile information from transcribed speech. Always respond with valid JSON only.",
		Temperature: 0.1,
		MaxTokens:   1000,
		JSON:        true,
	}
	CVGenerationOptions = llm.GenerateOptions{
		System:      "You write professional CV profiles. Produce persuasive, formal prose in the same language as the transcription.",
		Temperature: 0.3,
		MaxTokens:   1500,
	}
)

// StageError tags a pipeline failure with the stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage a pipeline error came from, if any
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// AudioExtractor turns a video file into mono PCM/WAV bytes
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath string) ([]byte, error)
}

// ProviderChain is the slice of llm.Chain the pipeline needs
type ProviderChain interface {
	Transcribe(ctx context.Context, audio llm.Audio) (llm.Transcript, []llm.ProviderResult, error)
	Generate(ctx context.Context, body string, vars map[string]string, opts llm.GenerateOptions) (string, []llm.ProviderResult, error)
}

// PromptSource resolves prompt names to template bodies
type PromptSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	RequestID string `json:"request_id"`
	Stage     Stage  `json:"stage"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Progress statuses
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunOptions holds per-request settings
type RunOptions struct {
	// RequestID correlates logs; generated when empty
	RequestID  string
	OnProgress ProgressCallback
}

// Result is the Completed terminal state of a pipeline run
type Result struct {
	RequestID  string
	Transcript llm.Transcript
	Profile    types.ProfileData
	CV         string
	// Attempts holds the provider results of each provider-backed stage
	Attempts map[Stage][]llm.ProviderResult
	Duration time.Duration
}

// Response returns the boundary shape of the result
func (r *Result) Response() types.ProfileResponse {
	return types.ProfileResponse{CVProfile: r.CV, ProfileData: r.Profile}
}

// Pipeline runs the four extraction stages in order
type Pipeline struct {
	audio   AudioExtractor
	chain   ProviderChain
	prompts PromptSource
	logger  *slog.Logger
}

// New creates a pipeline
func New(audio AudioExtractor, chain ProviderChain, prompts PromptSource, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{audio: audio, chain: chain, prompts: prompts, logger: logger}
}

// run carries the state of one request
type run struct {
	*Pipeline
	id     string
	opts   RunOptions
	logger *slog.Logger
	result *Result
}

// Run extracts a profile and CV from the video at videoPath. Any stage
// failure stops the run and is returned as a *StageError; no partial
// result is returned.
func (p *Pipeline) Run(ctx context.Context, videoPath string, opts RunOptions) (*Result, error) {
	id := opts.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	r := &run{
		Pipeline: p,
		id:       id,
		opts:     opts,
		logger:   p.logger.With(slog.String("request_id", id)),
		result: &Result{
			RequestID: id,
			Attempts:  make(map[Stage][]llm.ProviderResult),
		},
	}
	start := time.Now()

	var audio []byte
	err := r.stage(StageAudioExtraction, func() error {
		var err error
		audio, err = p.audio.ExtractAudio(ctx, videoPath)
		if err == nil {
			r.logger.Debug("audio extracted", slog.Int("bytes", len(audio)))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageTranscription, func() error {
		transcript, results, err := p.chain.Transcribe(ctx, llm.NewWAV(audio))
		r.result.Attempts[StageTranscription] = results
		if err != nil {
			return err
		}
		transcript.Text = strings.TrimSpace(norm.NFC.String(transcript.Text))
		r.result.Transcript = transcript
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageFieldExtraction, func() error {
		body, err := p.prompts.Get(ctx, prompts.ProfileExtraction)
		if err != nil {
			return err
		}
		raw, results, err := p.chain.Generate(ctx, body, map[string]string{
			"text":          r.result.Transcript.Text,
			"transcription": r.result.Transcript.Text,
		}, FieldExtractionOptions)
		r.result.Attempts[StageFieldExtraction] = results
		if err != nil {
			return err
		}
		profile, found := ParseProfile(raw)
		if len(found) == 0 {
			r.logger.Warn("no profile fields recognised in extraction response")
		} else if len(found) < len(types.ProfileFields) {
			r.logger.Debug("partial profile extracted", slog.Any("fields", found))
		}
		r.result.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageCVGeneration, func() error {
		body, err := p.prompts.Get(ctx, prompts.CVGeneration)
		if err != nil {
			return err
		}
		vars, err := cvVariables(r.result.Transcript.Text, r.result.Profile)
		if err != nil {
			return err
		}
		cv, results, err := p.chain.Generate(ctx, body, vars, CVGenerationOptions)
		r.result.Attempts[StageCVGeneration] = results
		if err != nil {
			return err
		}
		r.result.CV = cv
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.result.Duration = time.Since(start)
	r.logger.Info("profile extraction completed",
		slog.String("transcription_provider", r.result.Transcript.SourceProviderID),
		slog.Duration("duration", r.result.Duration))
	return r.result, nil
}

// stage runs fn as the named stage, emitting progress and tagging failures
func (r *run) stage(stage Stage, fn func() error) error {
	r.emit(stage, StatusStarted, "")
	r.logger.Info("stage started", slog.String("stage", string(stage)))

	if err := fn(); err != nil {
		r.emit(stage, StatusFailed, err.Error())
		r.logger.Error("stage failed", slog.String("stage", string(stage)), slog.Any("error", err))
		return &StageError{Stage: stage, Err: err}
	}

	r.emit(stage, StatusCompleted, "")
	return nil
}

func (r *run) emit(stage Stage, status, message string) {
	if r.opts.OnProgress == nil {
		return
	}
	r.opts.OnProgress(ProgressEvent{
		RequestID: r.id,
		Stage:     stage,
		Status:    status,
		Message:   message,
	})
}

// cvVariables builds the placeholder map for the CV prompt: every profile
// field, the transcription, and the profile as JSON.
func cvVariables(transcription string, profile types.ProfileData) (map[string]string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(profile); err != nil {
		return nil, fmt.Errorf("encoding profile data: %w", err)
	}

	vars := profile.Fields()
	vars["transcription"] = transcription
	vars["text"] = transcription
	vars["profile_data"] = strings.TrimSpace(buf.String())
	return vars, nil
}

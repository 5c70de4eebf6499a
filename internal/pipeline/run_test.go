package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/media"
	"github.com/jonathan/profile-extractor/internal/prompts"
)

type fakeAudio struct {
	data []byte
	err  error
	path string
}

func (f *fakeAudio) ExtractAudio(_ context.Context, path string) ([]byte, error) {
	f.path = path
	return f.data, f.err
}

type generateCall struct {
	body string
	vars map[string]string
	opts llm.GenerateOptions
}

type fakeChain struct {
	transcript     llm.Transcript
	transcribeErr  error
	responses      []string
	generateErrs   []error
	transcribeSeen []byte
	calls          []generateCall
}

func (f *fakeChain) Transcribe(_ context.Context, audio llm.Audio) (llm.Transcript, []llm.ProviderResult, error) {
	f.transcribeSeen = audio.Data
	if f.transcribeErr != nil {
		return llm.Transcript{}, []llm.ProviderResult{{ProviderID: "groq", ErrorKind: llm.ErrorKindUnavailable}}, f.transcribeErr
	}
	return f.transcript, []llm.ProviderResult{{ProviderID: f.transcript.SourceProviderID, Succeeded: true, Payload: f.transcript.Text}}, nil
}

func (f *fakeChain) Generate(_ context.Context, body string, vars map[string]string, opts llm.GenerateOptions) (string, []llm.ProviderResult, error) {
	i := len(f.calls)
	f.calls = append(f.calls, generateCall{body: body, vars: vars, opts: opts})
	if i < len(f.generateErrs) && f.generateErrs[i] != nil {
		return "", nil, f.generateErrs[i]
	}
	if _, err := prompts.Substitute(body, vars); err != nil {
		return "", nil, err
	}
	return f.responses[i], []llm.ProviderResult{{ProviderID: "gemini", Succeeded: true, Payload: f.responses[i]}}, nil
}

func newTestPipeline(audio *fakeAudio, chain *fakeChain) *Pipeline {
	return New(audio, chain, prompts.NewRepository(nil, nil), nil)
}

const extractionJSON = `{"name":"Ana López","profession":"Backend Developer","experience":"5 years building APIs",` +
	`"education":"BSc Computer Science","technologies":"Go, PostgreSQL","languages":"Spanish, English",` +
	`"achievements":"Led a payments migration","soft_skills":"Mentoring"}`

func TestRun_CompletesAllStages(t *testing.T) {
	audio := &fakeAudio{data: []byte("RIFF....WAVEfmt ")}
	chain := &fakeChain{
		transcript: llm.Transcript{Text: "  Hola, soy Ana López, desarrolladora backend.  ", SourceProviderID: "groq"},
		responses:  []string{"```json\n" + extractionJSON + "\n```", "Ana López es una desarrolladora backend..."},
	}

	var events []ProgressEvent
	result, err := newTestPipeline(audio, chain).Run(context.Background(), "/tmp/video.mp4", RunOptions{
		RequestID:  "req-1",
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/video.mp4", audio.path)
	assert.Equal(t, audio.data, chain.transcribeSeen)
	assert.Equal(t, "req-1", result.RequestID)
	assert.Equal(t, "Hola, soy Ana López, desarrolladora backend.", result.Transcript.Text)
	assert.Equal(t, "groq", result.Transcript.SourceProviderID)
	assert.Equal(t, "Ana López", result.Profile.Name)
	assert.Equal(t, "Mentoring", result.Profile.SoftSkills)
	assert.Equal(t, "Ana López es una desarrolladora backend...", result.CV)

	require.Len(t, chain.calls, 2)
	assert.Equal(t, result.Transcript.Text, chain.calls[0].vars["text"])
	assert.Equal(t, FieldExtractionOptions, chain.calls[0].opts)
	assert.Equal(t, CVGenerationOptions, chain.calls[1].opts)
	assert.Equal(t, "Backend Developer", chain.calls[1].vars["profession"])
	assert.Equal(t, result.Transcript.Text, chain.calls[1].vars["transcription"])
	assert.Contains(t, chain.calls[1].vars["profile_data"], `"name": "Ana López"`)

	assert.Len(t, result.Attempts[StageTranscription], 1)
	assert.Len(t, result.Attempts[StageFieldExtraction], 1)
	assert.Len(t, result.Attempts[StageCVGeneration], 1)

	require.Len(t, events, 2*len(Stages))
	for i, stage := range Stages {
		assert.Equal(t, stage, events[2*i].Stage)
		assert.Equal(t, StatusStarted, events[2*i].Status)
		assert.Equal(t, StatusCompleted, events[2*i+1].Status)
		assert.Equal(t, "req-1", events[2*i].RequestID)
	}

	resp := result.Response()
	assert.Equal(t, result.CV, resp.CVProfile)
	assert.Equal(t, result.Profile, resp.ProfileData)
}

func TestRun_GeneratesRequestID(t *testing.T) {
	chain := &fakeChain{
		transcript: llm.Transcript{Text: "hello", SourceProviderID: "groq"},
		responses:  []string{extractionJSON, "cv"},
	}
	result, err := newTestPipeline(&fakeAudio{data: []byte("wav")}, chain).Run(context.Background(), "v.mp4", RunOptions{})
	require.NoError(t, err)
	assert.Len(t, result.RequestID, 36)
}

func TestRun_ShortVideoWithPartialProfile(t *testing.T) {
	// a ten second clip that only mentions a role and years of experience
	chain := &fakeChain{
		transcript: llm.Transcript{Text: "I am a backend engineer with 5 years experience", SourceProviderID: "groq"},
		responses: []string{
			`{"name":"","profession":"backend engineer","experience":"5 years","education":"","technologies":"","languages":"","achievements":"","soft_skills":""}`,
			"Seasoned backend engineer with 5 years of experience designing reliable services.",
		},
	}
	result, err := newTestPipeline(&fakeAudio{data: []byte("wav")}, chain).Run(context.Background(), "clip.mp4", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "backend engineer", result.Profile.Profession)
	assert.Equal(t, "5 years", result.Profile.Experience)
	assert.Empty(t, result.Profile.Name)
	assert.NotEmpty(t, result.CV)
	assert.Contains(t, result.CV, "backend engineer")
}

func TestRun_UnparseableExtractionStillGeneratesCV(t *testing.T) {
	chain := &fakeChain{
		transcript: llm.Transcript{Text: "...", SourceProviderID: "groq"},
		responses:  []string{"I could not find any profile information.", "A short profile."},
	}
	result, err := newTestPipeline(&fakeAudio{data: []byte("wav")}, chain).Run(context.Background(), "v.mp4", RunOptions{})
	require.NoError(t, err)
	assert.True(t, result.Profile.IsEmpty())
	assert.Equal(t, "A short profile.", result.CV)
}

func TestRun_StageFailures(t *testing.T) {
	exhausted := &llm.ExhaustedError{Capability: llm.CapabilityGeneration}

	tests := []struct {
		name      string
		audio     *fakeAudio
		chain     *fakeChain
		wantStage Stage
		wantIs    error
		wantCalls int
	}{
		{
			name:      "audio extraction",
			audio:     &fakeAudio{err: &media.ProcessingError{Path: "v.mp4", Message: "no audio stream"}},
			chain:     &fakeChain{},
			wantStage: StageAudioExtraction,
			wantIs:    media.ErrMediaProcessing,
		},
		{
			name:      "transcription",
			audio:     &fakeAudio{data: []byte("wav")},
			chain:     &fakeChain{transcribeErr: &llm.ExhaustedError{Capability: llm.CapabilityTranscription}},
			wantStage: StageTranscription,
			wantIs:    llm.ErrAllProvidersExhausted,
		},
		{
			name:  "field extraction",
			audio: &fakeAudio{data: []byte("wav")},
			chain: &fakeChain{
				transcript:   llm.Transcript{Text: "t", SourceProviderID: "groq"},
				generateErrs: []error{exhausted},
			},
			wantStage: StageFieldExtraction,
			wantIs:    llm.ErrAllProvidersExhausted,
			wantCalls: 1,
		},
		{
			name:  "cv generation",
			audio: &fakeAudio{data: []byte("wav")},
			chain: &fakeChain{
				transcript:   llm.Transcript{Text: "t", SourceProviderID: "groq"},
				responses:    []string{extractionJSON},
				generateErrs: []error{nil, exhausted},
			},
			wantStage: StageCVGeneration,
			wantIs:    llm.ErrAllProvidersExhausted,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var failed []ProgressEvent
			result, err := newTestPipeline(tt.audio, tt.chain).Run(context.Background(), "v.mp4", RunOptions{
				OnProgress: func(e ProgressEvent) {
					if e.Status == StatusFailed {
						failed = append(failed, e)
					}
				},
			})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantIs)

			stage, ok := FailedStage(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantStage, stage)
			assert.True(t, strings.HasPrefix(err.Error(), string(tt.wantStage)))
			assert.Len(t, tt.chain.calls, tt.wantCalls)

			require.Len(t, failed, 1)
			assert.Equal(t, tt.wantStage, failed[0].Stage)
		})
	}
}

type failingPrompts struct{}

func (failingPrompts) Get(_ context.Context, name string) (string, error) {
	return "", errors.Join(prompts.ErrPromptNotFound, errors.New(name))
}

func TestRun_PromptLookupFailure(t *testing.T) {
	chain := &fakeChain{transcript: llm.Transcript{Text: "t", SourceProviderID: "groq"}}
	p := New(&fakeAudio{data: []byte("wav")}, chain, failingPrompts{}, nil)

	_, err := p.Run(context.Background(), "v.mp4", RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, prompts.ErrPromptNotFound)
	stage, _ := FailedStage(err)
	assert.Equal(t, StageFieldExtraction, stage)
	assert.Empty(t, chain.calls)
}

func TestCVVariables(t *testing.T) {
	profile, _ := ParseProfile(extractionJSON)
	vars, err := cvVariables("transcript <b>", profile)
	require.NoError(t, err)

	assert.Equal(t, "transcript <b>", vars["transcription"])
	assert.Equal(t, "Go, PostgreSQL", vars["technologies"])
	assert.Contains(t, vars["profile_data"], "\n  \"profession\": \"Backend Developer\"")
	assert.NotContains(t, vars["profile_data"], `<`)
}

func TestFailedStage_NotAStageError(t *testing.T) {
	_, ok := FailedStage(errors.New("plain"))
	assert.False(t, ok)
}

package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/media"
	"github.com/jonathan/profile-extractor/internal/pipeline"
	"github.com/jonathan/profile-extractor/internal/prompts"
	"github.com/jonathan/profile-extractor/internal/testgen"
	"github.com/jonathan/profile-extractor/internal/types"
)

type fakePipeline struct {
	result   *pipeline.Result
	err      error
	gotPath  string
	gotBytes []byte
	gotID    string
	stages   []pipeline.Stage
}

func (f *fakePipeline) Run(_ context.Context, path string, opts pipeline.RunOptions) (*pipeline.Result, error) {
	f.gotPath = path
	f.gotBytes, _ = os.ReadFile(path)
	f.gotID = opts.RequestID
	if opts.OnProgress != nil {
		for _, stage := range f.stages {
			opts.OnProgress(pipeline.ProgressEvent{RequestID: opts.RequestID, Stage: stage, Status: pipeline.StatusCompleted})
		}
	}
	return f.result, f.err
}

type fakeTestGen struct {
	result *testgen.Result
	err    error
	got    types.TechnicalTestRequest
}

func (f *fakeTestGen) Generate(_ context.Context, req types.TechnicalTestRequest) (*testgen.Result, error) {
	f.got = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return f.result, f.err
}

type fakePrompts struct {
	bodies map[string]string
	putErr error
}

func (f *fakePrompts) Get(_ context.Context, name string) (string, error) {
	body, ok := f.bodies[name]
	if !ok {
		return "", prompts.ErrPromptNotFound
	}
	return body, nil
}

func (f *fakePrompts) Put(_ context.Context, name, body string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.bodies[name] = body
	return nil
}

func (f *fakePrompts) List(context.Context) []string {
	return []string{"cv_generation", "profile_extraction"}
}

func newTestHandler(deps Deps) http.Handler {
	if deps.Prompts == nil {
		deps.Prompts = &fakePrompts{bodies: map[string]string{}}
	}
	return New(Config{Addr: ":0"}, deps, nil).Handler()
}

func multipartVideo(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(Deps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{"status": "healthy"}, decode[map[string]string](t, rec))
}

func TestUploadVideo_Success(t *testing.T) {
	fp := &fakePipeline{result: &pipeline.Result{
		CV:      "Backend engineer with five years of experience.",
		Profile: types.ProfileData{Profession: "backend engineer", Experience: "5 years"},
	}}
	h := newTestHandler(Deps{Pipeline: fp})

	body, contentType := multipartVideo(t, "file", "talk.MOV", []byte("fake video bytes"))
	req := httptest.NewRequest(http.MethodPost, "/upload-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[types.ProfileResponse](t, rec)
	assert.Equal(t, "Backend engineer with five years of experience.", resp.CVProfile)
	assert.Equal(t, "backend engineer", resp.ProfileData.Profession)

	raw := decode[map[string]json.RawMessage](t, rec)
	var profile map[string]any
	require.NoError(t, json.Unmarshal(raw["profile_data"], &profile))
	assert.Len(t, profile, len(types.ProfileFields))
	assert.Equal(t, "", profile["education"])

	assert.Equal(t, []byte("fake video bytes"), fp.gotBytes)
	assert.True(t, strings.HasSuffix(fp.gotPath, ".mov"))
	assert.NotEmpty(t, fp.gotID)
	_, err := os.Stat(fp.gotPath)
	assert.True(t, os.IsNotExist(err), "temp file should be removed")
}

func TestUploadVideo_MissingFile(t *testing.T) {
	fp := &fakePipeline{}
	h := newTestHandler(Deps{Pipeline: fp})

	body, contentType := multipartVideo(t, "video", "talk.mp4", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorBody](t, rec).Error, "file")
	assert.Empty(t, fp.gotPath)
}

func TestUploadVideo_NotMultipart(t *testing.T) {
	h := newTestHandler(Deps{Pipeline: &fakePipeline{}})

	req := httptest.NewRequest(http.MethodPost, "/upload-video", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadVideo_StageFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantStage  string
	}{
		{
			name:       "media",
			err:        &pipeline.StageError{Stage: pipeline.StageAudioExtraction, Err: &media.ProcessingError{Message: "no audio stream in video"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantStage:  "audio-extraction",
		},
		{
			name: "transcription exhausted",
			err: &pipeline.StageError{Stage: pipeline.StageTranscription, Err: &llm.ExhaustedError{
				Capability: llm.CapabilityTranscription,
				Failures:   []llm.ProviderResult{{ProviderID: "groq", ErrorKind: llm.ErrorKindTimeout}},
			}},
			wantStatus: http.StatusServiceUnavailable,
			wantStage:  "transcription",
		},
		{
			name:       "template placeholder",
			err:        &pipeline.StageError{Stage: pipeline.StageCVGeneration, Err: &prompts.MissingPlaceholderError{Name: "city"}},
			wantStatus: http.StatusBadRequest,
			wantStage:  "cv-generation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Deps{Pipeline: &fakePipeline{err: tt.err}})

			body, contentType := multipartVideo(t, "file", "talk.mp4", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/upload-video", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			errBody := decode[ErrorBody](t, rec)
			assert.Equal(t, tt.wantStage, errBody.Stage)
			assert.NotEmpty(t, errBody.Error)
			assert.NotContains(t, rec.Body.String(), "profile_data")
		})
	}
}

func TestUploadVideoStream(t *testing.T) {
	fp := &fakePipeline{
		stages: pipeline.Stages,
		result: &pipeline.Result{CV: "cv text", Profile: types.ProfileData{Name: "Ana"}},
	}
	h := newTestHandler(Deps{Pipeline: fp})

	body, contentType := multipartVideo(t, "file", "talk.mp4", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload-video/stream", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events []string
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
			events = append(events, name)
		}
	}
	assert.Equal(t, []string{"progress", "progress", "progress", "progress", "complete"}, events)
	assert.Contains(t, rec.Body.String(), `"cv_profile":"cv text"`)
}

func TestUploadVideoStream_Error(t *testing.T) {
	fp := &fakePipeline{err: &pipeline.StageError{Stage: pipeline.StageFieldExtraction, Err: &llm.ExhaustedError{Capability: llm.CapabilityGeneration}}}
	h := newTestHandler(Deps{Pipeline: fp})

	body, contentType := multipartVideo(t, "file", "talk.mp4", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload-video/stream", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "event: error")
	assert.Contains(t, rec.Body.String(), `"stage":"field-extraction"`)
}

func TestGenerateTechnicalTest(t *testing.T) {
	fg := &fakeTestGen{result: &testgen.Result{
		Markdown: "# Technical Test: Software Engineer",
		Summary:  types.ProfileSummary{Profession: "Software Engineer", Technologies: "Python, FastAPI, PostgreSQL", Experience: "3 years"},
	}}
	h := newTestHandler(Deps{TestGen: fg})

	req := httptest.NewRequest(http.MethodPost, "/generate-technical-test", strings.NewReader(
		`{"profession":"Software Engineer","technologies":"Python, FastAPI, PostgreSQL","experience":"3 years","education":"CS degree"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[types.TechnicalTestResponse](t, rec)
	assert.Equal(t, "# Technical Test: Software Engineer", resp.TechnicalTestMarkdown)
	assert.Equal(t, "Python, FastAPI, PostgreSQL", resp.ProfileSummary.Technologies)
	assert.Equal(t, "CS degree", fg.got.Education)
}

func TestGenerateTechnicalTest_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		genErr     error
		wantStatus int
	}{
		{name: "malformed json", body: `{"profession":`, wantStatus: http.StatusBadRequest},
		{name: "missing field", body: `{"profession":"QA","technologies":"Go","experience":"1 year"}`, wantStatus: http.StatusBadRequest},
		{
			name:       "providers exhausted",
			body:       `{"profession":"QA","technologies":"Go","experience":"1 year","education":"none"}`,
			genErr:     &llm.ExhaustedError{Capability: llm.CapabilityGeneration},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Deps{TestGen: &fakeTestGen{err: tt.genErr}})

			req := httptest.NewRequest(http.MethodPost, "/generate-technical-test", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, decode[ErrorBody](t, rec).Error)
		})
	}
}

func TestPromptEndpoints(t *testing.T) {
	fp := &fakePrompts{bodies: map[string]string{"cv_generation": "Write a CV from {transcription}"}}
	h := newTestHandler(Deps{Prompts: fp})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"cv_generation", "profile_extraction"}, decode[PromptListResponse](t, rec).Prompts)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/cv_generation", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, PromptResponse{Name: "cv_generation", Template: "Write a CV from {transcription}"}, decode[PromptResponse](t, rec))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/prompts/cv_generation", strings.NewReader(`{"template":"New {transcription}"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New {transcription}", fp.bodies["cv_generation"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutPrompt_StoreUnavailable(t *testing.T) {
	fp := &fakePrompts{bodies: map[string]string{}, putErr: prompts.ErrStoreUnavailable}
	h := newTestHandler(Deps{Prompts: fp})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/prompts/cv_generation", strings.NewReader(`{"template":"x"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(Deps{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, Deps{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Start(ctx))
}

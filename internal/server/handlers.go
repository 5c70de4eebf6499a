package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jonathan/profile-extractor/internal/media"
	"github.com/jonathan/profile-extractor/internal/pipeline"
	"github.com/jonathan/profile-extractor/internal/types"
)

// maxMemoryBytes is how much of a multipart upload is buffered in memory
const maxMemoryBytes = 32 << 20

// PromptResponse is the body of GET /prompts/{name}
type PromptResponse struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

// PromptRequest is the body of PUT /prompts/{name}
type PromptRequest struct {
	Template string `json:"template"`
}

// PromptListResponse is the body of GET /prompts
type PromptListResponse struct {
	Prompts []string `json:"prompts"`
}

// handleUploadVideo extracts a profile and CV from an uploaded video
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := s.saveUpload(w, r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	defer cleanup()

	result, err := s.deps.Pipeline.Run(r.Context(), path, pipeline.RunOptions{
		RequestID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result.Response())
}

// handleUploadVideoStream runs the pipeline and reports stage progress as server-sent events
func (s *Server) handleUploadVideoStream(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := s.saveUpload(w, r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	defer cleanup()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.deps.Pipeline.Run(r.Context(), path, pipeline.RunOptions{
		RequestID: middleware.GetReqID(r.Context()),
		OnProgress: func(event pipeline.ProgressEvent) {
			if werr := sse.WriteEvent("progress", event); werr != nil {
				s.logger.Debug("failed to write progress event", slog.Any("error", werr))
			}
		},
	})
	if err != nil {
		body := ErrorBody{Error: err.Error()}
		if stage, ok := pipeline.FailedStage(err); ok {
			body.Stage = string(stage)
		}
		sse.WriteError(body)
		return
	}
	sse.WriteComplete(result.Response())
}

// saveUpload copies the multipart "file" field to a temporary file
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (string, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("upload exceeds %d bytes: %w", s.maxUploadBytes, err)
		}
		return "", nil, &ErrValidation{Field: "file", Message: "expected a multipart form: " + err.Error()}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, &ErrValidation{Field: "file", Message: "a video file is required"}
		}
		return "", nil, &ErrValidation{Field: "file", Message: err.Error()}
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	path, cleanup, err := media.SaveTemp(file, media.Extension(header.Filename))
	if err != nil {
		return "", nil, err
	}
	// the parsed form may hold its own temp copy
	return path, func() {
		cleanup()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}, nil
}

// handleGenerateTechnicalTest generates a technical test for the posted job requirements
func (s *Server) handleGenerateTechnicalTest(w http.ResponseWriter, r *http.Request) {
	var req types.TechnicalTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.deps.TestGen.Generate(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result.Response())
}

// handleListPrompts lists every resolvable prompt name
func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, PromptListResponse{Prompts: s.deps.Prompts.List(r.Context())})
}

// handleGetPrompt returns the effective template for a prompt
func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := s.deps.Prompts.Get(r.Context(), name)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, PromptResponse{Name: name, Template: body})
}

// handlePutPrompt stores a prompt override
func (s *Server) handlePutPrompt(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.deps.Prompts.Put(r.Context(), name, req.Template); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "success", "name": name})
}

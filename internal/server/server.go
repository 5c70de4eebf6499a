// Package server provides the HTTP API for profile extraction, technical
// test generation and prompt management.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jonathan/profile-extractor/internal/pipeline"
	"github.com/jonathan/profile-extractor/internal/testgen"
	"github.com/jonathan/profile-extractor/internal/types"
)

// DefaultMaxUploadBytes caps the size of an uploaded video
const DefaultMaxUploadBytes = 500 << 20

// ProfileExtractor runs the video to profile pipeline
type ProfileExtractor interface {
	Run(ctx context.Context, videoPath string, opts pipeline.RunOptions) (*pipeline.Result, error)
}

// TestGenerator generates technical tests
type TestGenerator interface {
	Generate(ctx context.Context, req types.TechnicalTestRequest) (*testgen.Result, error)
}

// PromptManager reads and writes prompt templates
type PromptManager interface {
	Get(ctx context.Context, name string) (string, error)
	Put(ctx context.Context, name, body string) error
	List(ctx context.Context) []string
}

// Deps are the services the handlers call
type Deps struct {
	Pipeline ProfileExtractor
	TestGen  TestGenerator
	Prompts  PromptManager
}

// Config holds server configuration
type Config struct {
	Addr           string
	MaxUploadBytes int64
	// WriteTimeout must cover a full pipeline run across every provider
	WriteTimeout time.Duration
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	deps           Deps
	logger         *slog.Logger
	maxUploadBytes int64
}

// New creates a new server instance
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Minute
	}

	s := &Server{
		deps:           deps,
		logger:         logger,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router with every route and middleware attached
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.withLogging)
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	r.Get("/health", s.handleHealth)
	r.Post("/upload-video", s.handleUploadVideo)
	r.Post("/upload-video/stream", s.handleUploadVideoStream)
	r.Post("/generate-technical-test", s.handleGenerateTechnicalTest)

	r.Route("/prompts", func(r chi.Router) {
		r.Get("/", s.handleListPrompts)
		r.Get("/{name}", s.handleGetPrompt)
		r.Put("/{name}", s.handlePutPrompt)
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}

// handleHealth reports liveness without touching providers or the store
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", slog.Any("error", err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, ErrorBody{Error: message})
}

// failure maps err to a status and writes it, tagged with the failing stage if any
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	body := ErrorBody{Error: err.Error()}
	if stage, ok := pipeline.FailedStage(err); ok {
		body.Stage = string(stage)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int("status", status),
			slog.Any("error", err))
	}
	s.jsonResponse(w, status, body)
}

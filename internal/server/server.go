package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kevinmichaelchen/repo-summary/internal/github"
	"github.com/kevinmichaelchen/repo-summary/internal/llm"
	"github.com/kevinmichaelchen/repo-summary/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// Summarizer produces a report for one repository URL.
type Summarizer interface {
	Run(ctx context.Context, githubURL string) (*models.Report, error)
}

type Server struct {
	summarizer Summarizer
	mux        *http.ServeMux
}

func New(s Summarizer) *Server {
	srv := &Server{summarizer: s, mux: http.NewServeMux()}
	srv.mux.HandleFunc("GET /{$}", srv.handleRoot)
	srv.mux.HandleFunc("GET /healthz", srv.handleHealth)
	srv.mux.HandleFunc("POST /summarize", srv.handleSummarize)
	return srv
}

// ServeHTTP attaches a request-scoped logger and logs each request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	logger := log.Logger.With().Str("request_id", id).Logger()
	r = r.WithContext(logger.WithContext(r.Context()))
	w.Header().Set("X-Request-ID", id)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panicked")
			if !rec.wroteHeader {
				writeError(rec, http.StatusInternalServerError, "Internal server error")
			}
		}
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}()
	s.mux.ServeHTTP(rec, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type summarizeRequest struct {
	GitHubURL *string `json:"github_url"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "github_url" {
			writeError(w, http.StatusUnprocessableEntity, "body.github_url: Input should be a valid string")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "body: JSON decode error: "+err.Error())
		return
	}
	if req.GitHubURL == nil {
		writeError(w, http.StatusUnprocessableEntity, "body.github_url: Field required")
		return
	}

	// Work continues if the client disconnects; each outbound call has its
	// own timeout.
	ctx := context.WithoutCancel(r.Context())
	report, err := s.summarizer.Run(ctx, *req.GitHubURL)
	if err != nil {
		s.writeRunError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Summary)
}

func (s *Server) writeRunError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := zerolog.Ctx(ctx)

	var ghErr *github.Error
	var llmErr *llm.Error
	switch {
	case errors.As(err, &ghErr):
		logger.Error().Err(err).Int("status", ghErr.StatusCode).Msg("GitHub error")
		writeError(w, ghErr.StatusCode, ghErr.Message)
	case errors.As(err, &llmErr):
		logger.Error().Err(err).Msg("LLM error")
		writeError(w, http.StatusBadGateway, "Failed to generate summary: "+llmErr.Message)
	default:
		logger.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "GitHub Repository Summarizer",
		"usage":   `POST /summarize with {"github_url": "https://github.com/owner/repo"}`,
		"health":  "/healthz",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

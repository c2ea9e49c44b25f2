// Package server exposes the question-answering engine and the report
// generator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docuchat/medreview/internal/domain"
	"github.com/docuchat/medreview/internal/engine"
	"github.com/docuchat/medreview/internal/report"
)

// Asker answers one conversational turn.
type Asker interface {
	Ask(ctx context.Context, sessionKey, utterance string) (engine.Answer, error)
}

// Reporter builds a report bundle for a topic.
type Reporter interface {
	Generate(ctx context.Context, topic string) (*report.Report, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	asker         Asker
	reporter      Reporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(asker Asker, reporter Reporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		asker:    asker,
		reporter: reporter,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, "index_unavailable"),
		sentinelHandler(domain.ErrGenerationFormat, http.StatusBadGateway, "generation_format"),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrGenerationProvider, http.StatusBadGateway, "generation_provider_error"),
		sentinelHandler(domain.ErrRemoteService, http.StatusBadGateway, "remote_service_error"),
	}
	return s
}

type askRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type askResponse struct {
	SessionID string   `json:"session_id"`
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
}

// Ask handles POST /v1/ask. A missing session id starts a new session.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "question is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ans, err := s.asker.Ask(r.Context(), sessionID, req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := ans.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, askResponse{
		SessionID: sessionID,
		Answer:    ans.Text,
		Sources:   sources,
	})
}

type reportRequest struct {
	Topic string `json:"topic"`
}

type reportResponse struct {
	Topic        string   `json:"topic"`
	MarkdownPath string   `json:"markdown_path"`
	AuditPath    string   `json:"audit_path"`
	PDFPath      string   `json:"pdf_path"`
	Sources      []string `json:"sources"`
}

// Report handles POST /v1/report.
func (s *Server) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "topic is required")
		return
	}

	rep, err := s.reporter.Generate(r.Context(), req.Topic)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := rep.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Topic:        rep.Topic,
		MarkdownPath: rep.MarkdownPath,
		AuditPath:    rep.AuditPath,
		PDFPath:      rep.PDFPath,
		Sources:      sources,
	})
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

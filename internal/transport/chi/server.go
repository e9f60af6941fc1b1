// Package chi exposes the retrieval pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/domain"
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/usecase/pipeline"
)

// AskService answers journal questions.
type AskService interface {
	Ask(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
}

// Pinger checks store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server.
type Server struct {
	ask    AskService
	db     Pinger
	embed  domain.HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server. embed may be nil when the embedding
// provider exposes no health check.
func NewServer(ask AskService, db Pinger, embed domain.HealthChecker, logger *zap.Logger) *Server {
	return &Server{ask: ask, db: db, embed: embed, logger: logger}
}

// Routes mounts all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/ask", s.handleAsk)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
}

// askRequest is the POST /v1/ask body.
type askRequest struct {
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
	Timezone string `json:"timezone,omitempty"`
	History  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"history,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	StrictDates bool       `json:"strict_dates,omitempty"`
}

// handleAsk handles POST /v1/ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	pipelineReq := pipeline.Request{
		UserID:      req.UserID,
		Message:     req.Message,
		Timezone:    req.Timezone,
		StrictDates: req.StrictDates,
	}
	for _, turn := range req.History {
		pipelineReq.History = append(pipelineReq.History, domain.ChatTurn{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	if req.StartDate != nil && req.EndDate != nil {
		pipelineReq.Range = &plan.TimeRange{Start: *req.StartDate, End: *req.EndDate}
	}

	resp, err := s.ask.Ask(r.Context(), pipelineReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if err := s.db.Ping(r.Context()); err != nil {
		checks["database"] = "unhealthy"
		healthy = false
	} else {
		checks["database"] = "healthy"
	}

	if s.embed != nil {
		if err := s.embed.HealthCheck(r.Context()); err != nil {
			checks["embedding"] = "unhealthy"
			healthy = false
		} else {
			checks["embedding"] = "healthy"
		}
	}

	status, httpStatus := "healthy", http.StatusOK
	if !healthy {
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// handleMetrics handles GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrEmbeddingProvider), errors.Is(err, domain.ErrCompletionProvider):
		s.logger.Error("provider error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "provider_error", "upstream provider error")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
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

// internal/server/server.go

// Package server exposes the ask endpoint over HTTP. Sessions are held in
// memory keyed by the caller-supplied sessionId; a missing id starts a new
// conversation.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "sales-insights/internal/common/errors"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/common/validation"
	"sales-insights/internal/engine/dispatcher"
	"sales-insights/internal/session"
)

const maxRequestBytes = 1 << 16

type Server struct {
	dispatcher *dispatcher.Dispatcher
	sessions   *session.Manager
	logger     logger.Logger
	httpServer *http.Server
}

type askRequest struct {
	SessionID string `json:"sessionId"`
	Utterance string `json:"utterance"`
}

type askResponse struct {
	SessionID string      `json:"sessionId"`
	Response  interface{} `json:"response"`
}

func New(d *dispatcher.Dispatcher, sessions *session.Manager, log logger.Logger, address string) *Server {
	s := &Server{
		dispatcher: d,
		sessions:   sessions,
		logger: log.With(map[string]interface{}{
			"component": "http-server",
		}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/ask", s.handleAsk)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", map[string]interface{}{
		"address": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewInvalidRequestError("unreadable body"))
		return
	}

	if err := validation.ValidateJSON(validation.AskRequestSchema, body); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	var req askRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	sess := s.sessions.Get(req.SessionID)
	resp := s.dispatcher.Process(r.Context(), req.Utterance, sess)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(askResponse{
		SessionID: sess.ID(),
		Response:  resp,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, stdErr *apperrors.StandardError) {
	s.logger.Warn("request rejected", map[string]interface{}{
		"code":    string(stdErr.Code),
		"details": stdErr.Details,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": stdErr,
	})
}

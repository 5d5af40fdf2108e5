// Package server exposes the /chatbots HTTP surface over the core app.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"clearbuybot/internal/app"
	"clearbuybot/internal/ratelimit"
	"clearbuybot/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App        *app.App
	AskTimeout time.Duration
	// AskLimiter optionally rate-limits /chatbots/ask by client IP.
	AskLimiter     *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes HTTP endpoints for the chatbot service.
type Server struct {
	app            *app.App
	askTimeout     time.Duration
	askLimiter     *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	askTimeout := cfg.AskTimeout
	if askTimeout <= 0 {
		askTimeout = 90 * time.Second
	}
	s := &Server{
		app:            cfg.App,
		askTimeout:     askTimeout,
		askLimiter:     cfg.AskLimiter,
		trustedProxies: cfg.TrustedProxies,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	handler := util.WithSecurityHeaders(util.WithCORS(s.mux))
	handler = util.WithRequestLog("chatbot", handler)
	return util.WithRequestID(handler)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/chatbots/ask", s.handleAsk)
	s.mux.HandleFunc("/chatbots/clear-chat", s.handleClearChat)
	s.mux.HandleFunc("/chatbots/chat-history", s.handleChatHistory)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	UserQuestion string `json:"user_question"`
	UserID       string `json:"user_id"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

// envelope is the response shape every endpoint uses.
type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.askLimiter != nil {
		ip := util.ClientIP(r, s.trustedProxies)
		if !s.askLimiter.Allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
	}
	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.askTimeout)
	defer cancel()

	res, err := s.app.Ask(ctx, req.UserID, req.UserQuestion)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Status:  true,
		Message: "Success",
		Data:    res,
	})
}

func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	var req userRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.ClearChat(req.UserID); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: true, Message: "Success"})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req userRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	entries, err := s.app.History(req.UserID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Status:  true,
		Message: "Success",
		Data:    entries,
	})
}

// writeAppError maps core errors onto the HTTP surface. Internals are
// logged with the request id and never leaked verbatim.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrUserIDRequired):
		writeError(w, http.StatusBadRequest, "user_id is required")
	case errors.Is(err, app.ErrQuestionRequired):
		writeError(w, http.StatusBadRequest, "user_question is required")
	case errors.Is(err, app.ErrNoHistory):
		writeError(w, http.StatusNotFound, "no chat history found for user")
	default:
		logger := util.LoggerFromContext(r.Context())
		logger.Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error, please check the logs.")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Status: false, Message: msg})
}

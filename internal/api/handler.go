// Package api provides HTTP handlers for the StudyToolsGPT proxy.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/adithyag/studytoolsgpt/internal/dispatch"
	"github.com/adithyag/studytoolsgpt/internal/domain"
	"github.com/go-chi/chi/v5"
)

// invalidRequestMessage is the fixed body of every 400 response.
const invalidRequestMessage = "Invalid request body"

// Responder produces the reply for one conversation turn.
type Responder interface {
	Dispatch(ctx context.Context, modeLabel string, turns []domain.ChatTurn) (*dispatch.Result, error)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RespondHandler handles POST /api/respond.
type RespondHandler struct {
	responder   Responder
	limiter     *RateLimiter
	maxBodySize int64
}

// NewRespondHandler creates a RespondHandler. limiter may be nil to disable
// throttling (tests).
func NewRespondHandler(responder Responder, limiter *RateLimiter, maxBodySize int64) *RespondHandler {
	if maxBodySize <= 0 {
		maxBodySize = 2 << 20
	}
	return &RespondHandler{responder: responder, limiter: limiter, maxBodySize: maxBodySize}
}

// RegisterRoutes registers the respond route.
func (h *RespondHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/respond", h.Respond)
}

// respondRequest mirrors the wire shape of a respond call. Messages are kept
// raw so one malformed entry is filtered rather than failing the request;
// only the top-level shape is load-bearing.
type respondRequest struct {
	ModeLabel *string           `json:"modeLabel"`
	Messages  []json.RawMessage `json:"messages"`
}

// Respond validates the request, dispatches it upstream, and writes the
// tagged result: {kind:"structured",document} or {kind:"text",text}.
func (h *RespondHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, invalidRequestMessage)
		return
	}
	if req.Messages == nil {
		Error(w, http.StatusBadRequest, invalidRequestMessage)
		return
	}

	modeLabel := ""
	if req.ModeLabel != nil {
		modeLabel = *req.ModeLabel
	}

	turns := make([]domain.ChatTurn, 0, len(req.Messages))
	for _, raw := range req.Messages {
		var turn struct {
			Role domain.Role `json:"role"`
			Text *string     `json:"text"`
		}
		// Entries without a string text are dropped, not rejected; an empty
		// string is still a valid text.
		if err := json.Unmarshal(raw, &turn); err != nil || turn.Text == nil {
			continue
		}
		turns = append(turns, domain.ChatTurn{Role: turn.Role, Text: *turn.Text})
	}

	result, err := h.responder.Dispatch(r.Context(), modeLabel, turns)
	if err != nil {
		slog.Error("Dispatch failed", "mode", modeLabel, "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch result.Kind {
	case domain.KindStructured:
		JSON(w, http.StatusOK, map[string]interface{}{
			"kind":     domain.KindStructured,
			"document": result.Document,
		})
	default:
		JSON(w, http.StatusOK, map[string]interface{}{
			"kind": domain.KindText,
			"text": result.Text,
		})
	}
}

// clientKey derives the throttling key from the request's remote address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

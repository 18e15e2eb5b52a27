package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"knowledge-assistant/internal/assistant"
	"knowledge-assistant/internal/contextutil"
	"knowledge-assistant/internal/metrics"
)

const (
	defaultTopK      = 4
	defaultSearchNum = 5
	minTopK          = 1
	maxTopK          = 10
)

// Asker is the question-answering entry point the handler delegates to.
type Asker interface {
	Ask(ctx context.Context, question string, topK int, collection string) (assistant.Answer, error)
}

// AskHandler handles HTTP requests for question answering.
type AskHandler struct {
	asker   Asker
	metrics *metrics.Registry
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(asker Asker, reg *metrics.Registry) *AskHandler {
	return &AskHandler{asker: asker, metrics: reg}
}

// AskRequest represents the HTTP request payload for question answering.
// Domain restricts retrieval to one collection; empty means all.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	Domain   string `json:"domain,omitempty"`
}

// ServeHTTP answers a question from ingested content. TopK is clamped to
// 1..10 and defaults to 4 when omitted.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	if req.TopK < minTopK {
		req.TopK = minTopK
	}
	if req.TopK > maxTopK {
		req.TopK = maxTopK
	}

	start := time.Now()
	answer, err := h.asker.Ask(ctx, req.Question, req.TopK, req.Domain)
	if err != nil {
		logger.ErrorContext(ctx, "ask failed", "error", err)
		h.metrics.RecordError()
		writeError(w, http.StatusInternalServerError, "Failed to answer question")
		return
	}

	h.metrics.RecordAsk(len(answer.Sources) == 0, time.Since(start))
	writeJSON(w, http.StatusOK, answer)
}

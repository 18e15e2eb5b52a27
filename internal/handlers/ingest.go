package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"knowledge-assistant/internal/contextutil"
	"knowledge-assistant/internal/metrics"
)

// Ingester is the ingestion entry point the handler delegates to.
type Ingester interface {
	IngestAll(ctx context.Context, urls []string) ([]string, error)
}

// IngestHandler handles HTTP requests to ingest documents by URL.
type IngestHandler struct {
	ingester Ingester
	metrics  *metrics.Registry
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingester Ingester, reg *metrics.Registry) *IngestHandler {
	return &IngestHandler{ingester: ingester, metrics: reg}
}

// IngestRequest represents the HTTP request payload for ingestion.
type IngestRequest struct {
	URLs []string `json:"urls"`
}

// IngestResponse represents the HTTP response payload for ingestion.
type IngestResponse struct {
	Message string   `json:"message"`
	IDs     []string `json:"ids"`
}

// ServeHTTP ingests the requested URLs. Per-URL failures are skipped; the
// response reports every chunk id that was stored.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	urls := make([]string, 0, len(req.URLs))
	for _, u := range req.URLs {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	if len(urls) == 0 {
		logger.WarnContext(ctx, "no urls in ingest request")
		writeError(w, http.StatusBadRequest, "At least one URL is required")
		return
	}

	start := time.Now()
	ids, err := h.ingester.IngestAll(ctx, urls)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "error", err)
		h.metrics.RecordError()
		writeError(w, http.StatusInternalServerError, "Ingestion failed")
		return
	}

	h.metrics.RecordIngest(len(ids), time.Since(start))
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, IngestResponse{
		Message: "Ingestion complete",
		IDs:     ids,
	})
}

package handlers

import (
	"context"
	"net/http"

	"knowledge-assistant/internal/contextutil"
	"knowledge-assistant/internal/metrics"
)

// DocumentTotals reports registry-wide document counts.
type DocumentTotals interface {
	Totals(ctx context.Context) (documents int, chunks int, err error)
}

// MetricsHandler handles HTTP requests for service counters.
type MetricsHandler struct {
	registry  *metrics.Registry
	documents DocumentTotals
}

// NewMetricsHandler creates a new MetricsHandler. documents may be nil when
// no registry database is configured.
func NewMetricsHandler(reg *metrics.Registry, documents DocumentTotals) *MetricsHandler {
	return &MetricsHandler{registry: reg, documents: documents}
}

// MetricsResponse represents the metrics payload.
type MetricsResponse struct {
	Counters       metrics.Snapshot `json:"counters"`
	DocumentsKnown int              `json:"documents_known"`
	ChunksKnown    int              `json:"chunks_known"`
}

// ServeHTTP reports request counters and document registry totals.
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	resp := MetricsResponse{Counters: h.registry.Snapshot()}
	if h.documents != nil {
		documents, chunks, err := h.documents.Totals(ctx)
		if err != nil {
			logger.WarnContext(ctx, "failed to read document totals", "error", err)
		} else {
			resp.DocumentsKnown = documents
			resp.ChunksKnown = chunks
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

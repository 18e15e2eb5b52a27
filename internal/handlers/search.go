package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"knowledge-assistant/internal/contextutil"
	"knowledge-assistant/internal/metrics"
	"knowledge-assistant/internal/search"
)

// Searcher is the search entry point the handler delegates to.
type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]search.Result, error)
}

// SearchHandler handles HTTP requests for keyword search.
type SearchHandler struct {
	searcher Searcher
	metrics  *metrics.Registry
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher Searcher, reg *metrics.Registry) *SearchHandler {
	return &SearchHandler{searcher: searcher, metrics: reg}
}

// SearchResponse represents the HTTP response payload for search.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// ServeHTTP runs a keyword search. The q query parameter is required; num
// is clamped to 1..10 and defaults to 5.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		logger.WarnContext(ctx, "empty search query")
		writeError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	num := defaultSearchNum
	if raw := r.URL.Query().Get("num"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid num parameter")
			return
		}
		num = parsed
	}
	if num < minTopK {
		num = minTopK
	}
	if num > maxTopK {
		num = maxTopK
	}

	results, err := h.searcher.Search(ctx, query, num)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "error", err)
		h.metrics.RecordError()
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	web := len(results) > 0 && results[0].Type == search.TypeWeb
	h.metrics.RecordSearch(web)

	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

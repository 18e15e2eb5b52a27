package handlers

import (
	"context"
	"net/http"

	"knowledge-assistant/internal/contextutil"
)

// CollectionLister enumerates the vector index collections for the health
// report.
type CollectionLister interface {
	ListCollections(ctx context.Context) []string
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	collections CollectionLister
	environment string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(collections CollectionLister, environment string) *HealthHandler {
	return &HealthHandler{collections: collections, environment: environment}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status            string   `json:"status"`
	Environment       string   `json:"environment"`
	VectorCollections []string `json:"vector_collections"`
	Detail            string   `json:"detail"`
}

// ServeHTTP reports service health. An unreachable index shows up as an
// empty collection list, not a failure.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	collections := h.collections.ListCollections(ctx)
	if collections == nil {
		collections = []string{}
	}
	logger.DebugContext(ctx, "health check", "collections", len(collections))

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:            "ok",
		Environment:       h.environment,
		VectorCollections: collections,
		Detail:            "service is running",
	})
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"knowledge-assistant/internal/handlers"
	"knowledge-assistant/internal/metrics"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Ingester    handlers.Ingester
	Asker       handlers.Asker
	Searcher    handlers.Searcher
	Collections handlers.CollectionLister
	Documents   handlers.DocumentTotals
	Metrics     *metrics.Registry
	Environment string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	r.Method(http.MethodPost, "/ingest", handlers.NewIngestHandler(deps.Ingester, deps.Metrics))
	r.Method(http.MethodPost, "/ask", handlers.NewAskHandler(deps.Asker, deps.Metrics))
	r.Method(http.MethodGet, "/search", handlers.NewSearchHandler(deps.Searcher, deps.Metrics))
	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Collections, deps.Environment))
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(deps.Metrics, deps.Documents))

	return r
}

package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"github.com/panjf2000/ants/v2"

	"knowledge-assistant/internal/assistant"
	"knowledge-assistant/internal/chunker"
	"knowledge-assistant/internal/config"
	"knowledge-assistant/internal/http"
	"knowledge-assistant/internal/ingest"
	"knowledge-assistant/internal/llm"
	"knowledge-assistant/internal/metrics"
	"knowledge-assistant/internal/retriever"
	"knowledge-assistant/internal/search"
	"knowledge-assistant/internal/storage"
	"knowledge-assistant/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize the document registry database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)
	documentRepo := storage.NewDocumentRepo(db)

	// Select the vector index backend
	var index vectorstore.Index
	switch cfg.VectorBackend {
	case "memory":
		index = vectorstore.NewMemoryIndex()
		slog.Info("Using in-memory vector index")
	default:
		qdrant, err := vectorstore.NewQdrantIndex(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		index = qdrant
		slog.Info("Using Qdrant vector index", "url", cfg.QdrantURL)
	}

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	gateway := vectorstore.NewGateway(index, embedder, cfg.QdrantVectorSize)

	// Shared worker pool for fan-out queries
	pool, err := ants.NewPool(cfg.FanoutWorkers)
	if err != nil {
		log.Fatalf("Failed to create worker pool: %v", err)
	}
	defer pool.Release()

	askEngine := retriever.NewEngine(gateway, embedder, pool, retriever.Config{
		Oversample:   cfg.OversampleFactor,
		QueryTimeout: cfg.QueryTimeout,
	})
	searchEngine := retriever.NewEngine(gateway, embedder, pool, retriever.Config{
		Oversample:   cfg.SearchOversampleFactor,
		QueryTimeout: cfg.QueryTimeout,
	})

	// Answer composition backend
	var llmClient *llm.Client
	if cfg.LLMBackend == "chat" {
		llmClient = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	}
	composer := llm.NewComposer(cfg.LLMBackend, llmClient)
	asker := assistant.NewService(askEngine, composer)
	slog.Info("Assistant initialized", "llm_backend", cfg.LLMBackend)

	// Web search with local fallback
	var webSearcher search.WebSearcher
	if cfg.WebSearchEnabled() {
		webSearcher = search.NewGoogleSearcher(cfg.GoogleAPIKey, cfg.GoogleCSEID)
		slog.Info("Web search enabled")
	} else {
		slog.Info("Web search disabled; /search serves local results only")
	}
	facade := search.NewFacade(webSearcher, searchEngine)

	ingestor := ingest.NewIngestor(
		ingest.NewHTTPFetcher(),
		chunker.New(chunker.WordTokenizer{}),
		gateway,
		documentRepo,
		cfg.ChunkMaxTokens,
		cfg.ChunkOverlap,
	)

	deps := &http.Deps{
		Ingester:    ingestor,
		Asker:       asker,
		Searcher:    facade,
		Collections: gateway,
		Documents:   documentRepo,
		Metrics:     metrics.NewRegistry(),
		Environment: cfg.Environment,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.Port
	slog.Info("Starting API server", "addr", addr, "environment", cfg.Environment)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}

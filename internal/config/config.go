package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level
	LogFormat   string

	// Vector index backend: "qdrant" or "memory".
	VectorBackend    string
	QdrantURL        string
	QdrantVectorSize int

	DBPath string

	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string

	LLMBackend   string
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	// Google Custom Search credentials. Both must be set for web search;
	// otherwise the /search endpoint serves local semantic results only.
	GoogleAPIKey string
	GoogleCSEID  string

	ChunkMaxTokens int
	ChunkOverlap   int

	OversampleFactor       int
	SearchOversampleFactor int
	FanoutWorkers          int
	QueryTimeout           time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory it is loaded automatically;
// environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:        getEnv("ENVIRONMENT", "local"),
		Port:               getEnv("PORT", "8000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		VectorBackend:      strings.ToLower(getEnv("VECTOR_BACKEND", "qdrant")),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		DBPath:             getEnv("DB_PATH", "./data/knowledge-assistant.db"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		LLMBackend:         strings.ToLower(getEnv("LLM_BACKEND", "dummy")),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", ""),
		GoogleCSEID:        getEnv("GOOGLE_CSE_ID", ""),
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	switch cfg.VectorBackend {
	case "qdrant", "memory":
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be \"qdrant\" or \"memory\", got %q", cfg.VectorBackend)
	}

	// The vector size must match the output dimension of the embedding model.
	// The memory backend infers the dimension from the first write instead.
	if cfg.VectorBackend == "qdrant" {
		sizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
		if sizeStr == "" {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required when VECTOR_BACKEND=qdrant")
		}
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
		}
		if size <= 0 {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
		}
		cfg.QdrantVectorSize = size
	}

	if cfg.ChunkMaxTokens, err = getEnvInt("CHUNK_MAX_TOKENS", 250); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 50); err != nil {
		return nil, err
	}
	if cfg.ChunkMaxTokens <= cfg.ChunkOverlap {
		return nil, fmt.Errorf("CHUNK_MAX_TOKENS (%d) must be greater than CHUNK_OVERLAP (%d)", cfg.ChunkMaxTokens, cfg.ChunkOverlap)
	}

	if cfg.OversampleFactor, err = getEnvInt("OVERSAMPLE_FACTOR", 6); err != nil {
		return nil, err
	}
	if cfg.SearchOversampleFactor, err = getEnvInt("SEARCH_OVERSAMPLE_FACTOR", 4); err != nil {
		return nil, err
	}
	if cfg.FanoutWorkers, err = getEnvInt("FANOUT_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.OversampleFactor < 1 || cfg.SearchOversampleFactor < 1 {
		return nil, fmt.Errorf("oversample factors must be at least 1")
	}
	if cfg.FanoutWorkers < 1 {
		return nil, fmt.Errorf("FANOUT_WORKERS must be at least 1")
	}

	timeoutSec, err := getEnvInt("QUERY_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	if timeoutSec <= 0 {
		return nil, fmt.Errorf("QUERY_TIMEOUT_SECONDS must be greater than 0")
	}
	cfg.QueryTimeout = time.Duration(timeoutSec) * time.Second

	// Create the data directory for the document registry if needed.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// WebSearchEnabled reports whether both Google CSE credentials are present.
func (c *Config) WebSearchEnabled() bool {
	return strings.TrimSpace(c.GoogleAPIKey) != "" && strings.TrimSpace(c.GoogleCSEID) != ""
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL: %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

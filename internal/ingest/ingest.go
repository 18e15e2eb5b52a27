// Package ingest turns source URLs into stored, addressable chunks: fetch,
// extract plain text, chunk, assign deterministic ids, and upsert into the
// collection named by the URL's domain.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"

	"knowledge-assistant/internal/chunker"
	"knowledge-assistant/internal/contextutil"
	"knowledge-assistant/internal/identity"
	"knowledge-assistant/internal/storage"
	"knowledge-assistant/internal/vectorstore"
)

// DefaultDomain is the collection used when a URL has no usable host.
const DefaultDomain = "default"

// Gateway is the slice of the vector index gateway the ingestor needs.
type Gateway interface {
	Upsert(ctx context.Context, collection string, texts, ids []string, metas []vectorstore.Meta) error
}

// Ingestor orchestrates the write path for a batch of URLs.
type Ingestor struct {
	fetcher   Fetcher
	chunker   *chunker.Chunker
	gateway   Gateway
	documents storage.DocumentStore

	maxTokens int
	overlap   int
}

// NewIngestor creates an ingestor. documents may be nil when no registry
// database is configured.
func NewIngestor(fetcher Fetcher, ch *chunker.Chunker, gateway Gateway, documents storage.DocumentStore, maxTokens, overlap int) *Ingestor {
	return &Ingestor{
		fetcher:   fetcher,
		chunker:   ch,
		gateway:   gateway,
		documents: documents,
		maxTokens: maxTokens,
		overlap:   overlap,
	}
}

// IngestAll processes each URL independently and returns the ids of every
// chunk successfully stored. Fetch and extraction failures, and documents
// that yield zero chunks, are logged and skipped so the batch continues.
// Index write failures abort the batch.
func (in *Ingestor) IngestAll(ctx context.Context, urls []string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var stored []string
	for _, rawURL := range urls {
		ids, err := in.ingestOne(ctx, rawURL)
		if err != nil {
			return stored, fmt.Errorf("failed to store chunks for %s: %w", rawURL, err)
		}
		if ids == nil {
			continue
		}
		stored = append(stored, ids...)
	}

	logger.InfoContext(ctx, "ingest batch finished", "urls", len(urls), "chunks_stored", len(stored))
	return stored, nil
}

// ingestOne returns (nil, nil) for skippable per-URL failures and a non-nil
// error only for index write failures.
func (in *Ingestor) ingestOne(ctx context.Context, rawURL string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	data, kind, err := in.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		logger.WarnContext(ctx, "fetch failed; skipping URL", "url", rawURL, "error", err)
		return nil, nil
	}

	text, err := ExtractText(data, kind)
	if err != nil {
		logger.WarnContext(ctx, "text extraction failed; skipping URL", "url", rawURL, "kind", kind, "error", err)
		return nil, nil
	}

	chunks, err := in.chunker.Chunk(text, in.maxTokens, in.overlap)
	if err != nil {
		return nil, fmt.Errorf("chunking failed: %w", err)
	}
	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no text extracted; skipping URL", "url", rawURL, "kind", kind)
		return nil, nil
	}

	domain := DomainForURL(rawURL)
	ids := make([]string, len(chunks))
	metas := make([]vectorstore.Meta, len(chunks))
	for i, chunk := range chunks {
		ids[i] = identity.ChunkID(rawURL, chunk)
		metas[i] = vectorstore.Meta{
			ChunkID:    ids[i],
			SourceURL:  rawURL,
			ChunkIndex: i,
			Domain:     domain,
		}
	}

	if err := in.gateway.Upsert(ctx, domain, chunks, ids, metas); err != nil {
		return nil, err
	}

	if in.documents != nil {
		hash := sha256.Sum256([]byte(text))
		doc := &storage.Document{
			URL:         rawURL,
			Domain:      domain,
			Kind:        string(kind),
			ChunkCount:  len(chunks),
			ContentHash: hex.EncodeToString(hash[:]),
		}
		if err := in.documents.Upsert(ctx, doc); err != nil {
			// The chunks are already stored; registry lag is tolerable.
			logger.WarnContext(ctx, "failed to record document", "url", rawURL, "error", err)
		}
	}

	logger.InfoContext(ctx, "document ingested", "url", rawURL, "kind", kind, "domain", domain, "chunks", len(chunks))
	return ids, nil
}

// DomainForURL derives the collection name from the URL's host, falling back
// to DefaultDomain when the URL has none.
func DomainForURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return DefaultDomain
	}
	return parsed.Hostname()
}

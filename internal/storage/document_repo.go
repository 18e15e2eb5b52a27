package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks knowledge-assistant/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// Document records one successfully ingested source document.
type Document struct {
	ID          int
	URL         string
	Domain      string // collection the document's chunks live in
	Kind        string // "html", "pdf" or "markdown"
	ChunkCount  int
	ContentHash string // SHA256 hex of the extracted text
	IngestedAt  time.Time
}

// DocumentStore defines the interface for document registry operations.
type DocumentStore interface {
	// Upsert inserts a document record or refreshes the existing one for
	// the same URL.
	Upsert(ctx context.Context, doc *Document) error
	// GetByURL gets a document by its source URL.
	// Returns nil and ErrNotFound if not found.
	GetByURL(ctx context.Context, url string) (*Document, error)
	// ListAll returns every registered document, newest first.
	ListAll(ctx context.Context) ([]Document, error)
	// Totals returns the number of documents and the sum of their chunk
	// counts.
	Totals(ctx context.Context) (documents int, chunks int, err error)
}

// DocumentRepo provides methods for document registry operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert inserts a document record or refreshes the existing one for the
// same URL, keyed on the URL's UNIQUE constraint.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (url, domain, kind, chunk_count, content_hash, ingested_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (url) DO UPDATE SET
		 domain = excluded.domain, kind = excluded.kind,
		 chunk_count = excluded.chunk_count, content_hash = excluded.content_hash,
		 ingested_at = CURRENT_TIMESTAMP`,
		doc.URL, doc.Domain, doc.Kind, doc.ChunkCount, doc.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// GetByURL gets a document by its source URL.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetByURL(ctx context.Context, url string) (*Document, error) {
	var doc Document
	var ingestedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, url, domain, kind, chunk_count, content_hash, ingested_at FROM documents WHERE url = ?",
		url,
	).Scan(&doc.ID, &doc.URL, &doc.Domain, &doc.Kind, &doc.ChunkCount, &doc.ContentHash, &ingestedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc.IngestedAt, err = parseTimestamp(ingestedAtStr)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// ListAll returns every registered document, newest first.
func (r *DocumentRepo) ListAll(ctx context.Context) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, url, domain, kind, chunk_count, content_hash, ingested_at FROM documents ORDER BY ingested_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var ingestedAtStr string
		if err := rows.Scan(&doc.ID, &doc.URL, &doc.Domain, &doc.Kind, &doc.ChunkCount, &doc.ContentHash, &ingestedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.IngestedAt, err = parseTimestamp(ingestedAtStr)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// Totals returns the number of documents and the sum of their chunk counts.
func (r *DocumentRepo) Totals(ctx context.Context) (int, int, error) {
	var documents, chunks int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(chunk_count), 0) FROM documents",
	).Scan(&documents, &chunks)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return documents, chunks, nil
}

// parseTimestamp handles the DATETIME string formats SQLite emits.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse ingested_at timestamp: %w", err)
	}
	return t, nil
}

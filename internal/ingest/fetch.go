package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

// Kind classifies a fetched document for extraction.
type Kind string

const (
	KindHTML     Kind = "html"
	KindPDF      Kind = "pdf"
	KindMarkdown Kind = "markdown"
)

const (
	htmlFetchTimeout = 20 * time.Second
	pdfFetchTimeout  = 60 * time.Second

	maxDocumentBytes = 32 << 20
)

// Fetcher retrieves a document and classifies it.
//
//go:generate mockgen -source=fetch.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, Kind, error)
}

// HTTPFetcher fetches documents over HTTP with per-kind timeouts. PDFs get
// a longer budget since they are typically much larger than pages.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher with a shared client. Timeouts are applied
// per request through the context, not on the client.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{}}
}

// Fetch downloads the document at url and returns its bytes and kind. The
// kind is guessed from the URL extension first and refined from the response
// Content-Type when the extension is inconclusive.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, Kind, error) {
	kind, known := kindFromURL(rawURL)

	timeout := htmlFetchTimeout
	if kind == KindPDF {
		timeout = pdfFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document body: %w", err)
	}

	if !known {
		kind = kindFromContentType(resp.Header.Get("Content-Type"))
	}
	return data, kind, nil
}

// kindFromURL classifies by URL path extension. The second return reports
// whether the extension was conclusive.
func kindFromURL(rawURL string) (Kind, bool) {
	ext := strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0]))
	switch ext {
	case ".pdf":
		return KindPDF, true
	case ".md", ".markdown":
		return KindMarkdown, true
	case ".html", ".htm":
		return KindHTML, true
	}
	return KindHTML, false
}

func kindFromContentType(contentType string) Kind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return KindPDF
	case strings.Contains(ct, "text/markdown"):
		return KindMarkdown
	default:
		return KindHTML
	}
}

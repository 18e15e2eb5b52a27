// Package search exposes keyword search backed by an external web-search
// provider, falling back to local semantic retrieval when the provider is
// unconfigured or failing.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"knowledge-assistant/internal/contextutil"
	"knowledge-assistant/internal/llm"
	"knowledge-assistant/internal/retriever"
)

const (
	// TypeWeb marks results that came from the external provider.
	TypeWeb = "web"
	// TypeLocal marks results served from the local vector index.
	TypeLocal = "local"

	defaultGoogleBaseURL = "https://www.googleapis.com/customsearch/v1"
	snippetLimit         = 300
)

// Result is one tagged search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Type    string `json:"type"`
}

// Retriever is the slice of the retrieval engine the façade needs for the
// local fallback path.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int, collection string) ([]retriever.Chunk, error)
}

// WebSearcher performs an external keyword search.
type WebSearcher interface {
	Search(ctx context.Context, query string, num int) ([]Result, error)
}

// GoogleSearcher queries the Google Custom Search JSON API.
type GoogleSearcher struct {
	APIKey  string
	CX      string
	BaseURL string
	Client  *http.Client
}

// NewGoogleSearcher creates a searcher against the public API endpoint.
func NewGoogleSearcher(apiKey, cx string) *GoogleSearcher {
	return &GoogleSearcher{
		APIKey:  apiKey,
		CX:      cx,
		BaseURL: defaultGoogleBaseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search runs one keyword query. num is clamped to the API's 1..10 range.
func (g *GoogleSearcher) Search(ctx context.Context, query string, num int) ([]Result, error) {
	if num < 1 {
		num = 1
	}
	if num > 10 {
		num = 10
	}

	params := url.Values{}
	params.Set("key", g.APIKey)
	params.Set("cx", g.CX)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Type:    TypeWeb,
		})
	}
	return results, nil
}

// Facade routes a search to the web provider when one is configured and
// falls back to local retrieval across all collections otherwise, or when
// the provider fails.
type Facade struct {
	web       WebSearcher
	retriever Retriever
}

// NewFacade creates the search façade. web may be nil when no provider
// credentials are configured.
func NewFacade(web WebSearcher, r Retriever) *Facade {
	return &Facade{web: web, retriever: r}
}

// Search returns at most num tagged results. Provider failures are logged
// and answered from the local index instead.
func (f *Facade) Search(ctx context.Context, query string, num int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if f.web != nil {
		results, err := f.web.Search(ctx, query, num)
		if err == nil {
			logger.InfoContext(ctx, "web search served", "query_len", len(query), "results", len(results))
			return results, nil
		}
		logger.WarnContext(ctx, "web search failed; falling back to local retrieval", "error", err)
	}

	chunks, err := f.retriever.Retrieve(ctx, query, num, "")
	if err != nil {
		return nil, fmt.Errorf("local search failed: %w", err)
	}

	results := make([]Result, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, Result{
			Title:   c.URL,
			URL:     c.URL,
			Snippet: llm.Clip(c.Text, snippetLimit),
			Type:    TypeLocal,
		})
	}
	return results, nil
}

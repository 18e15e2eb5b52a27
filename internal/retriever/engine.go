// Package retriever implements the retrieval-ranking pipeline: fan-out
// queries across one or all collections, merge the candidates, keep the
// globally closest subset, then filter for source diversity.
package retriever

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"knowledge-assistant/internal/contextutil"
	"knowledge-assistant/internal/llm"
	"knowledge-assistant/internal/vectorstore"
)

const (
	// DefaultOversample is the multiplier applied to topK when over-fetching
	// raw candidates ahead of the diversity filter.
	DefaultOversample = 6

	// DefaultQueryTimeout bounds each per-collection query so one slow shard
	// cannot stall the whole fan-out.
	DefaultQueryTimeout = 10 * time.Second
)

// Chunk is the transient read-path view of one stored chunk.
type Chunk struct {
	Text     string
	URL      string
	Distance float32
	Meta     vectorstore.Meta
}

// Gateway is the slice of the vector index gateway the engine needs.
type Gateway interface {
	Query(ctx context.Context, collection string, vector []float32, n int) ([]vectorstore.Result, error)
	ListCollections(ctx context.Context) []string
}

// Pool runs fan-out tasks; satisfied by *ants.Pool.
type Pool interface {
	Submit(task func()) error
}

// Config tunes an Engine. Zero values select the defaults above.
type Config struct {
	Oversample   int
	QueryTimeout time.Duration
}

// Engine runs stateless retrieval requests against the gateway. Every call
// to Retrieve is self-contained; the engine holds no per-request state.
type Engine struct {
	gateway      Gateway
	embedder     llm.Embedder
	pool         Pool
	oversample   int
	queryTimeout time.Duration
}

// NewEngine creates a retrieval engine. pool may be nil, in which case
// fan-out queries run on unbounded goroutines.
func NewEngine(gateway Gateway, embedder llm.Embedder, pool Pool, cfg Config) *Engine {
	if cfg.Oversample < 1 {
		cfg.Oversample = DefaultOversample
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	return &Engine{
		gateway:      gateway,
		embedder:     embedder,
		pool:         pool,
		oversample:   cfg.Oversample,
		queryTimeout: cfg.QueryTimeout,
	}
}

var _ Pool = (*ants.Pool)(nil)

// Retrieve returns at most topK chunks relevant to the question, preferring
// distinct source URLs when enough exist. An empty collection name fans out
// across all collections; individual collection failures are logged and
// skipped. An empty result with a nil error means no context is available.
func (e *Engine) Retrieve(ctx context.Context, question string, topK int, collection string) ([]Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	vecs, err := e.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no embedding returned for question")
	}
	queryVec := vecs[0]

	nResults := topK * e.oversample
	if nResults < topK {
		nResults = topK
	}

	var targets []string
	if collection != "" {
		targets = []string{collection}
	} else {
		targets = e.gateway.ListCollections(ctx)
	}

	candidates := e.fanOut(ctx, targets, queryVec, nResults)
	logger.DebugContext(ctx, "fan-out complete",
		"collections", len(targets), "candidates", len(candidates), "n_results", nResults)

	if len(candidates) == 0 {
		return nil, nil
	}

	keep := nResults
	if len(candidates) < keep {
		keep = len(candidates)
	}
	best := nSmallest(candidates, keep)
	return diversify(best, topK), nil
}

// fanOut queries each target collection independently on the worker pool.
// A failing or timed-out collection contributes nothing; its siblings are
// unaffected.
func (e *Engine) fanOut(ctx context.Context, targets []string, vec []float32, n int) []Chunk {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		candidates []Chunk
	)

	for _, name := range targets {
		name := name
		wg.Add(1)
		task := func() {
			defer wg.Done()

			qctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
			defer cancel()

			results, err := e.gateway.Query(qctx, name, vec, n)
			if err != nil {
				logger.WarnContext(ctx, "collection query failed; skipping",
					"collection", name, "error", err)
				return
			}

			mu.Lock()
			for _, r := range results {
				candidates = append(candidates, Chunk{
					Text:     r.Text,
					URL:      r.Meta.SourceURL,
					Distance: r.Distance,
					Meta:     r.Meta,
				})
			}
			mu.Unlock()
		}

		if e.pool != nil {
			if err := e.pool.Submit(task); err != nil {
				// Pool saturated or released; run inline rather than drop the shard.
				task()
			}
		} else {
			go task()
		}
	}
	wg.Wait()

	return candidates
}

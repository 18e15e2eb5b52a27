package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"knowledge-assistant/internal/contextutil"
	"knowledge-assistant/internal/identity"
	"knowledge-assistant/internal/llm"
)

// Gateway owns one lazily-created collection per domain and translates chunk
// storage and retrieval into the underlying index's primitives. The upsert
// capability of the index is resolved once at construction; indexes without
// native upsert go through an existing-ids/delete/add sequence that is
// equivalent but not atomic (a concurrent reader can observe a brief gap).
type Gateway struct {
	index          Index
	embedder       llm.Embedder
	vectorSize     int
	supportsUpsert bool

	mu          sync.Mutex
	collections map[string]struct{}
}

// NewGateway wires an index and an embedder into a gateway. vectorSize is the
// dimension used when creating collections; pass 0 for indexes that infer it.
func NewGateway(index Index, embedder llm.Embedder, vectorSize int) *Gateway {
	return &Gateway{
		index:          index,
		embedder:       embedder,
		vectorSize:     vectorSize,
		supportsUpsert: index.SupportsUpsert(),
		collections:    make(map[string]struct{}),
	}
}

// ensure creates the collection on first access. The check-then-create
// sequence runs under the mutex so concurrent first callers for one name
// trigger at most one creation.
func (g *Gateway) ensure(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.collections[name]; ok {
		return nil
	}
	if err := g.index.EnsureCollection(ctx, name, g.vectorSize); err != nil {
		return fmt.Errorf("failed to ensure collection %q: %w", name, err)
	}
	g.collections[name] = struct{}{}
	return nil
}

// Upsert embeds texts and stores them as points in the named collection.
// ids are chunk ids (hex digests); they are bridged to point UUIDs here.
// Empty input is a no-op.
func (g *Gateway) Upsert(ctx context.Context, collection string, texts, ids []string, metas []Meta) error {
	if len(texts) == 0 {
		return nil
	}
	if len(ids) != len(texts) || len(metas) != len(texts) {
		return fmt.Errorf("texts, ids and metas must have equal length")
	}

	if err := g.ensure(ctx, collection); err != nil {
		return err
	}

	vecs, err := g.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed texts: %w", err)
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}

	points := make([]Point, len(texts))
	for i := range texts {
		points[i] = Point{
			ID:   identity.PointUUID(ids[i]),
			Vec:  vecs[i],
			Text: texts[i],
			Meta: metas[i],
		}
	}

	if g.supportsUpsert {
		return g.index.Upsert(ctx, collection, points)
	}
	return g.upsertViaDeleteAdd(ctx, collection, points)
}

// upsertViaDeleteAdd emulates upsert for add-only indexes: fetch the ids that
// already exist, delete them, insert fresh. Net effect matches upsert, with
// the documented transient window where an id is briefly absent.
func (g *Gateway) upsertViaDeleteAdd(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "index lacks native upsert; using delete+add fallback",
		"collection", collection, "count", len(points))

	ids := make([]string, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}

	existing, err := g.index.ExistingIDs(ctx, collection, ids)
	if err != nil {
		logger.WarnContext(ctx, "failed to fetch existing ids; proceeding with add",
			"collection", collection, "error", err)
		existing = nil
	}
	if len(existing) > 0 {
		if err := g.index.Delete(ctx, collection, existing); err != nil {
			return fmt.Errorf("failed to delete existing points: %w", err)
		}
	}
	return g.index.Add(ctx, collection, points)
}

// Query runs a nearest-neighbor search against one named collection,
// creating it on first read attempt.
func (g *Gateway) Query(ctx context.Context, collection string, vector []float32, n int) ([]Result, error) {
	if err := g.ensure(ctx, collection); err != nil {
		return nil, err
	}
	return g.index.Query(ctx, collection, vector, n)
}

// ListCollections enumerates known collections. Listing failures are logged
// and reported as "no collections yet" rather than propagated.
func (g *Gateway) ListCollections(ctx context.Context) []string {
	names, err := g.index.ListCollections(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to list collections", "error", err)
		return nil
	}
	return names
}

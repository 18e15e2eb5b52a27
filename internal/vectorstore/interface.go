package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks knowledge-assistant/internal/vectorstore Index

import "context"

// Meta is the structured payload stored alongside each chunk vector.
// Extra carries forward-compatible fields that have no named slot.
type Meta struct {
	ChunkID    string
	SourceURL  string
	ChunkIndex int
	Domain     string
	Extra      map[string]any
}

// Point is one vector with its text and payload, addressed by a UUID id.
type Point struct {
	ID   string
	Vec  []float32
	Text string
	Meta Meta
}

// Result is one nearest-neighbor hit. Distance is metric-defined by the
// backing index; lower always means more similar.
type Result struct {
	Text     string
	Meta     Meta
	Distance float32
}

// Index is the low-level vector index contract the gateway drives.
type Index interface {
	// EnsureCollection creates the named collection if it does not exist.
	EnsureCollection(ctx context.Context, name string, vectorSize int) error

	// ListCollections enumerates all collection names known to the index.
	ListCollections(ctx context.Context) ([]string, error)

	// Upsert inserts or replaces points by id.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Add inserts points, failing on id collisions. Only used by the
	// delete-then-add fallback when the index lacks native upsert.
	Add(ctx context.Context, collection string, points []Point) error

	// ExistingIDs returns the subset of ids already present in the collection.
	ExistingIDs(ctx context.Context, collection string, ids []string) ([]string, error)

	// Delete removes points by id.
	Delete(ctx context.Context, collection string, ids []string) error

	// Query returns the n nearest neighbors of vector, closest first.
	Query(ctx context.Context, collection string, vector []float32, n int) ([]Result, error)

	// SupportsUpsert reports whether Upsert is natively available.
	SupportsUpsert() bool
}

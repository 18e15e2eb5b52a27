package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is a brute-force cosine-distance index held in process memory.
// It backs local development (VECTOR_BACKEND=memory) and tests. The vector
// dimension is inferred from the first write into each collection.
type MemoryIndex struct {
	mu           sync.RWMutex
	nativeUpsert bool
	collections  map[string]*memCollection
}

type memCollection struct {
	vectorSize int
	points     map[string]memPoint
	order      []string // insertion order, keeps tie-breaking stable
}

type memPoint struct {
	vec  []float32
	text string
	meta Meta
}

// MemoryOption configures a MemoryIndex.
type MemoryOption func(*MemoryIndex)

// WithoutNativeUpsert makes the index refuse id collisions on Add and report
// no upsert support, forcing callers onto the delete-then-add fallback.
func WithoutNativeUpsert() MemoryOption {
	return func(m *MemoryIndex) { m.nativeUpsert = false }
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(opts ...MemoryOption) *MemoryIndex {
	m := &MemoryIndex{
		nativeUpsert: true,
		collections:  make(map[string]*memCollection),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SupportsUpsert reports whether native upsert is enabled.
func (m *MemoryIndex) SupportsUpsert() bool { return m.nativeUpsert }

// EnsureCollection creates the named collection if it does not exist.
func (m *MemoryIndex) EnsureCollection(_ context.Context, name string, vectorSize int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = &memCollection{
			vectorSize: vectorSize,
			points:     make(map[string]memPoint),
		}
	}
	return nil
}

// ListCollections returns all collection names.
func (m *MemoryIndex) ListCollections(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Upsert inserts or replaces points by id.
func (m *MemoryIndex) Upsert(ctx context.Context, collection string, points []Point) error {
	if !m.nativeUpsert {
		return fmt.Errorf("index does not support upsert")
	}
	return m.put(ctx, collection, points, true)
}

// Add inserts points, failing when an id is already present.
func (m *MemoryIndex) Add(ctx context.Context, collection string, points []Point) error {
	return m.put(ctx, collection, points, false)
}

func (m *MemoryIndex) put(_ context.Context, collection string, points []Point, replace bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q not found", collection)
	}

	for _, p := range points {
		if col.vectorSize == 0 {
			col.vectorSize = len(p.Vec)
		}
		if len(p.Vec) != col.vectorSize {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(p.Vec), col.vectorSize)
		}
		if _, exists := col.points[p.ID]; exists {
			if !replace {
				return fmt.Errorf("point %q already exists", p.ID)
			}
		} else {
			col.order = append(col.order, p.ID)
		}
		col.points[p.ID] = memPoint{vec: p.Vec, text: p.Text, meta: p.Meta}
	}
	return nil
}

// ExistingIDs returns the subset of ids present in the collection.
func (m *MemoryIndex) ExistingIDs(_ context.Context, collection string, ids []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", collection)
	}

	var existing []string
	for _, id := range ids {
		if _, ok := col.points[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

// Delete removes points by id. Unknown ids are ignored.
func (m *MemoryIndex) Delete(_ context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q not found", collection)
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := col.points[id]; ok {
			delete(col.points, id)
			drop[id] = true
		}
	}
	if len(drop) > 0 {
		kept := col.order[:0]
		for _, id := range col.order {
			if !drop[id] {
				kept = append(kept, id)
			}
		}
		col.order = kept
	}
	return nil
}

// Query returns the n nearest neighbors by cosine distance, closest first.
func (m *MemoryIndex) Query(_ context.Context, collection string, vector []float32, n int) ([]Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be greater than 0")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", collection)
	}

	results := make([]Result, 0, len(col.order))
	for _, id := range col.order {
		p := col.points[id]
		results = append(results, Result{
			Text:     p.text,
			Meta:     p.meta,
			Distance: cosineDistance(vector, p.vec),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Count returns the number of points stored in the collection.
func (m *MemoryIndex) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if col, ok := m.collections[collection]; ok {
		return len(col.points)
	}
	return 0
}

func cosineDistance(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}

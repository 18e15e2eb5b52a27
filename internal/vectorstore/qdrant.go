package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"knowledge-assistant/internal/contextutil"
)

// QdrantIndex implements Index using Qdrant over gRPC.
type QdrantIndex struct {
	client *qdrant.Client
}

// NewQdrantIndex creates a Qdrant-backed index. urlStr should be in the form
// "http://host:port" (e.g. "http://localhost:6333"); the gRPC port is derived
// from the HTTP port.
func NewQdrantIndex(urlStr string) (*QdrantIndex, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// gRPC port is conventionally the HTTP port + 1.
	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{client: client}, nil
}

// SupportsUpsert reports native upsert availability. Qdrant upserts natively.
func (q *QdrantIndex) SupportsUpsert() bool { return true }

// EnsureCollection creates the collection with cosine distance if missing.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "creating collection", "collection", name, "vector_size", vectorSize)

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// ListCollections enumerates all collection names.
func (q *QdrantIndex) ListCollections(ctx context.Context) ([]string, error) {
	names, err := q.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// Upsert inserts or replaces points by id.
func (q *QdrantIndex) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		qdrantPoints = append(qdrantPoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vec...),
			Payload: qdrant.NewValueMap(payloadFromPoint(point)),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Add delegates to Upsert; Qdrant has no add-only primitive.
func (q *QdrantIndex) Add(ctx context.Context, collection string, points []Point) error {
	return q.Upsert(ctx, collection, points)
}

// ExistingIDs returns the subset of ids present in the collection.
func (q *QdrantIndex) ExistingIDs(ctx context.Context, collection string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}

	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            pointIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get points: %w", err)
	}

	existing := make([]string, 0, len(points))
	for _, p := range points {
		if p.Id != nil {
			existing = append(existing, p.Id.GetUuid())
		}
	}
	return existing, nil
}

// Delete removes points by their ids.
func (q *QdrantIndex) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Query runs a nearest-neighbor search. Qdrant reports cosine similarity
// (higher = closer); results are translated to distances (lower = closer).
func (q *QdrantIndex) Query(ctx context.Context, collection string, vector []float32, n int) ([]Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be greater than 0")
	}

	limit := uint64(n)
	scoredPoints, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	results := make([]Result, 0, len(scoredPoints))
	for _, sp := range scoredPoints {
		payload := convertPayloadToMap(sp.Payload)
		text, meta := metaFromPayload(payload)
		results = append(results, Result{
			Text:     text,
			Meta:     meta,
			Distance: 1 - sp.Score,
		})
	}
	return results, nil
}

const (
	payloadKeyText       = "text"
	payloadKeyChunkID    = "chunk_id"
	payloadKeySourceURL  = "source_url"
	payloadKeyChunkIndex = "chunk_index"
	payloadKeyDomain     = "domain"
)

// payloadFromPoint flattens a point's text and structured metadata into the
// payload map stored with the vector.
func payloadFromPoint(p Point) map[string]any {
	payload := map[string]any{
		payloadKeyText:       p.Text,
		payloadKeyChunkID:    p.Meta.ChunkID,
		payloadKeySourceURL:  p.Meta.SourceURL,
		payloadKeyChunkIndex: int64(p.Meta.ChunkIndex),
		payloadKeyDomain:     p.Meta.Domain,
	}
	for k, v := range p.Meta.Extra {
		if _, reserved := payload[k]; !reserved {
			payload[k] = v
		}
	}
	return payload
}

// metaFromPayload rebuilds the text and structured metadata from a payload
// map. Missing fields default to zero values; unknown keys land in Extra.
func metaFromPayload(payload map[string]any) (string, Meta) {
	meta := Meta{}
	var text string
	for k, v := range payload {
		switch k {
		case payloadKeyText:
			text, _ = v.(string)
		case payloadKeyChunkID:
			meta.ChunkID, _ = v.(string)
		case payloadKeySourceURL:
			meta.SourceURL, _ = v.(string)
		case payloadKeyChunkIndex:
			switch n := v.(type) {
			case int64:
				meta.ChunkIndex = int(n)
			case float64:
				meta.ChunkIndex = int(n)
			}
		case payloadKeyDomain:
			meta.Domain, _ = v.(string)
		default:
			if meta.Extra == nil {
				meta.Extra = make(map[string]any)
			}
			meta.Extra[k] = v
		}
	}
	return text, meta
}

// convertPayloadToMap converts a Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to a Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}

// Package identity derives deterministic, content-addressed identifiers for
// chunks. Identical (url, text) pairs always yield the same id, which makes
// re-ingestion an upsert instead of a duplicate insert.
package identity

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// ChunkID computes a deterministic identifier for a chunk by hashing the
// prefix (typically the source URL) followed by the chunk content. The
// digest's collision resistance is the sole uniqueness guarantee.
func ChunkID(prefix, content string) string {
	h := sha256.New()
	h.Write([]byte(prefix))
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// PointUUID maps a chunk id to a deterministic UUID. Qdrant only accepts
// UUID or integer point ids, so the hex chunk id is bridged through a
// name-based UUID; the mapping is stable, preserving idempotent upserts.
func PointUUID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

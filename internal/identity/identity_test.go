package identity

import "testing"

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("https://example.com/doc", "some chunk text")
	b := ChunkID("https://example.com/doc", "some chunk text")
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
}

func TestChunkID_HexDigest(t *testing.T) {
	id := ChunkID("prefix", "content")
	if len(id) != 64 {
		t.Errorf("id length = %d, want 64 hex chars", len(id))
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("id contains non-hex character %q", r)
		}
	}
}

func TestChunkID_DistinctInputs(t *testing.T) {
	tests := []struct {
		name           string
		p1, c1, p2, c2 string
	}{
		{name: "different content", p1: "url", c1: "text one", p2: "url", c2: "text two"},
		{name: "different prefix", p1: "url-a", c1: "text", p2: "url-b", c2: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ChunkID(tt.p1, tt.c1) == ChunkID(tt.p2, tt.c2) {
				t.Error("distinct inputs produced identical ids")
			}
		})
	}
}

func TestChunkID_HashesConcatenation(t *testing.T) {
	// The id is the digest of prefix+content as one byte stream, so inputs
	// that concatenate to the same bytes share an id.
	if ChunkID("ab", "c") != ChunkID("a", "bc") {
		t.Error("inputs with identical concatenation produced different ids")
	}
}

func TestPointUUID_Deterministic(t *testing.T) {
	id := ChunkID("https://example.com", "chunk")
	u1 := PointUUID(id)
	u2 := PointUUID(id)
	if u1 != u2 {
		t.Errorf("same chunk id produced different uuids: %s vs %s", u1, u2)
	}
	if u1 == PointUUID(ChunkID("https://example.com", "other chunk")) {
		t.Error("different chunk ids produced identical uuids")
	}
	if len(u1) != 36 {
		t.Errorf("uuid length = %d, want 36", len(u1))
	}
}

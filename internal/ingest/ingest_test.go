package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"knowledge-assistant/internal/chunker"
	"knowledge-assistant/internal/identity"
	"knowledge-assistant/internal/vectorstore"
)

type stubFetcher struct {
	docs map[string]struct {
		data []byte
		kind Kind
	}
}

func (s *stubFetcher) Fetch(_ context.Context, url string) ([]byte, Kind, error) {
	doc, ok := s.docs[url]
	if !ok {
		return nil, "", errors.New("connection refused")
	}
	return doc.data, doc.kind, nil
}

type recordingGateway struct {
	upserts map[string][]string // collection -> ids
	err     error
	texts   map[string][]string
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{upserts: map[string][]string{}, texts: map[string][]string{}}
}

func (g *recordingGateway) Upsert(_ context.Context, collection string, texts, ids []string, _ []vectorstore.Meta) error {
	if g.err != nil {
		return g.err
	}
	g.upserts[collection] = append(g.upserts[collection], ids...)
	g.texts[collection] = append(g.texts[collection], texts...)
	return nil
}

func htmlDoc(body string) []byte {
	return []byte("<html><head><style>body{color:red}</style></head><body>" + body + "</body></html>")
}

func newIngestor(f Fetcher, g Gateway) *Ingestor {
	return NewIngestor(f, chunker.New(chunker.WordTokenizer{}), g, nil, 10, 2)
}

func TestIngestAll_StoresChunksByDomain(t *testing.T) {
	body := strings.Repeat("knowledge retrieval systems need overlapping chunks ", 10)
	f := &stubFetcher{docs: map[string]struct {
		data []byte
		kind Kind
	}{
		"https://docs.example.com/guide": {htmlDoc(body), KindHTML},
	}}
	g := newRecordingGateway()

	ids, err := newIngestor(f, g).IngestAll(context.Background(), []string{"https://docs.example.com/guide"})
	if err != nil {
		t.Fatalf("IngestAll() error = %v", err)
	}
	if len(ids) == 0 {
		t.Fatal("IngestAll() stored no chunks")
	}
	if got := g.upserts["docs.example.com"]; len(got) != len(ids) {
		t.Errorf("collection docs.example.com holds %d ids, want %d", len(got), len(ids))
	}
	// Ids are content-addressed on (url, chunk text).
	if want := identity.ChunkID("https://docs.example.com/guide", g.texts["docs.example.com"][0]); ids[0] != want {
		t.Errorf("ids[0] = %s, want deterministic id %s", ids[0], want)
	}
}

func TestIngestAll_SkipsFailedURLs(t *testing.T) {
	f := &stubFetcher{docs: map[string]struct {
		data []byte
		kind Kind
	}{
		"https://ok.example.com/a": {htmlDoc("some indexable words for the store"), KindHTML},
	}}
	g := newRecordingGateway()

	ids, err := newIngestor(f, g).IngestAll(context.Background(),
		[]string{"https://down.example.com/x", "https://ok.example.com/a"})
	if err != nil {
		t.Fatalf("IngestAll() error = %v", err)
	}
	if len(ids) == 0 {
		t.Error("surviving URL contributed no ids")
	}
	if len(g.upserts["down.example.com"]) != 0 {
		t.Error("failed URL produced stored chunks")
	}
}

func TestIngestAll_SkipsEmptyDocuments(t *testing.T) {
	f := &stubFetcher{docs: map[string]struct {
		data []byte
		kind Kind
	}{
		"https://empty.example.com": {htmlDoc("   "), KindHTML},
	}}
	g := newRecordingGateway()

	ids, err := newIngestor(f, g).IngestAll(context.Background(), []string{"https://empty.example.com"})
	if err != nil {
		t.Fatalf("IngestAll() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("empty document stored %d chunks", len(ids))
	}
}

func TestIngestAll_IndexFailureAborts(t *testing.T) {
	f := &stubFetcher{docs: map[string]struct {
		data []byte
		kind Kind
	}{
		"https://a.example.com": {htmlDoc("words to store in the index"), KindHTML},
	}}
	g := newRecordingGateway()
	g.err = errors.New("index unavailable")

	if _, err := newIngestor(f, g).IngestAll(context.Background(), []string{"https://a.example.com"}); err == nil {
		t.Error("IngestAll() expected error when the index write fails, got nil")
	}
}

func TestDomainForURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"https host", "https://docs.example.com/guide", "docs.example.com"},
		{"host with port", "http://localhost:8080/page", "localhost"},
		{"no host", "not a url", DefaultDomain},
		{"empty", "", DefaultDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DomainForURL(tt.url); got != tt.want {
				t.Errorf("DomainForURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestKindFromURL(t *testing.T) {
	tests := []struct {
		url       string
		want      Kind
		wantKnown bool
	}{
		{"https://x.com/paper.pdf", KindPDF, true},
		{"https://x.com/README.md", KindMarkdown, true},
		{"https://x.com/page.html", KindHTML, true},
		{"https://x.com/doc.PDF?dl=1", KindPDF, true},
		{"https://x.com/article", KindHTML, false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, known := kindFromURL(tt.url)
			if got != tt.want || known != tt.wantKnown {
				t.Errorf("kindFromURL(%q) = (%v, %v), want (%v, %v)", tt.url, got, known, tt.want, tt.wantKnown)
			}
		})
	}
}

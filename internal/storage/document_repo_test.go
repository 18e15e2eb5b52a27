package storage

import (
	"context"
	"errors"
	"testing"
)

func newTestDB(t *testing.T) *DocumentRepo {
	t.Helper()

	db, err := New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return NewDocumentRepo(db)
}

func TestDocumentRepo_UpsertAndGetByURL(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	doc := &Document{
		URL:         "https://example.com/guide",
		Domain:      "example.com",
		Kind:        "html",
		ChunkCount:  3,
		ContentHash: "abc123",
	}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.GetByURL(ctx, "https://example.com/guide")
	if err != nil {
		t.Fatalf("GetByURL() error = %v", err)
	}
	if got.Domain != "example.com" || got.Kind != "html" || got.ChunkCount != 3 {
		t.Errorf("GetByURL() = %+v", got)
	}
	if got.IngestedAt.IsZero() {
		t.Error("IngestedAt not populated")
	}
}

func TestDocumentRepo_GetByURL_NotFound(t *testing.T) {
	repo := newTestDB(t)

	_, err := repo.GetByURL(context.Background(), "https://missing.example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByURL() error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_UpsertIsIdempotent(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	doc := &Document{URL: "https://example.com/a", Domain: "example.com", Kind: "html", ChunkCount: 2, ContentHash: "h1"}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Same URL again with refreshed content.
	doc.ChunkCount = 5
	doc.ContentHash = "h2"
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() second call error = %v", err)
	}

	documents, chunks, err := repo.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if documents != 1 {
		t.Errorf("documents = %d, want 1 after re-ingesting same URL", documents)
	}
	if chunks != 5 {
		t.Errorf("chunks = %d, want refreshed count 5", chunks)
	}

	got, err := repo.GetByURL(ctx, "https://example.com/a")
	if err != nil {
		t.Fatalf("GetByURL() error = %v", err)
	}
	if got.ContentHash != "h2" {
		t.Errorf("ContentHash = %q, want h2", got.ContentHash)
	}
}

func TestDocumentRepo_ListAllAndTotals(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	docs := []*Document{
		{URL: "https://a.example.com/1", Domain: "a.example.com", Kind: "html", ChunkCount: 2, ContentHash: "h1"},
		{URL: "https://b.example.com/1", Domain: "b.example.com", Kind: "pdf", ChunkCount: 4, ContentHash: "h2"},
	}
	for _, d := range docs {
		if err := repo.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert(%s) error = %v", d.URL, err)
		}
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll() returned %d documents, want 2", len(all))
	}

	documents, chunks, err := repo.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if documents != 2 || chunks != 6 {
		t.Errorf("Totals() = (%d, %d), want (2, 6)", documents, chunks)
	}
}

func TestDocumentRepo_EmptyDatabase(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListAll() = %v, want empty", all)
	}

	documents, chunks, err := repo.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if documents != 0 || chunks != 0 {
		t.Errorf("Totals() = (%d, %d), want (0, 0)", documents, chunks)
	}
}

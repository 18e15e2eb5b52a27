package vectorstore

import (
	"context"
	"testing"
)

func mustEnsure(t *testing.T, idx *MemoryIndex, name string) {
	t.Helper()
	if err := idx.EnsureCollection(context.Background(), name, 0); err != nil {
		t.Fatalf("EnsureCollection() unexpected error: %v", err)
	}
}

func TestMemoryIndex_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	mustEnsure(t, idx, "docs")

	points := []Point{
		{ID: "a", Vec: []float32{1, 0}, Text: "exact match", Meta: Meta{SourceURL: "https://a"}},
		{ID: "b", Vec: []float32{0, 1}, Text: "orthogonal", Meta: Meta{SourceURL: "https://b"}},
		{ID: "c", Vec: []float32{0.9, 0.1}, Text: "close", Meta: Meta{SourceURL: "https://c"}},
	}
	if err := idx.Upsert(ctx, "docs", points); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}

	results, err := idx.Query(ctx, "docs", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Query() returned %d results, want 2", len(results))
	}
	if results[0].Text != "exact match" {
		t.Errorf("closest result = %q, want %q", results[0].Text, "exact match")
	}
	if results[1].Text != "close" {
		t.Errorf("second result = %q, want %q", results[1].Text, "close")
	}
	if results[0].Distance > results[1].Distance {
		t.Error("results not ordered by ascending distance")
	}
}

func TestMemoryIndex_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	mustEnsure(t, idx, "docs")

	p := []Point{{ID: "a", Vec: []float32{1, 0}, Text: "v1"}}
	if err := idx.Upsert(ctx, "docs", p); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}
	p[0].Text = "v2"
	if err := idx.Upsert(ctx, "docs", p); err != nil {
		t.Fatalf("second Upsert() unexpected error: %v", err)
	}

	if got := idx.Count("docs"); got != 1 {
		t.Errorf("Count() = %d after re-upsert, want 1", got)
	}
	results, err := idx.Query(ctx, "docs", []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if results[0].Text != "v2" {
		t.Errorf("re-upsert did not replace point text: got %q", results[0].Text)
	}
}

func TestMemoryIndex_AddRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(WithoutNativeUpsert())
	mustEnsure(t, idx, "docs")

	if idx.SupportsUpsert() {
		t.Error("SupportsUpsert() = true, want false")
	}
	p := []Point{{ID: "a", Vec: []float32{1}, Text: "t"}}
	if err := idx.Add(ctx, "docs", p); err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if err := idx.Add(ctx, "docs", p); err == nil {
		t.Error("Add() of duplicate id expected error, got nil")
	}
	if err := idx.Upsert(ctx, "docs", p); err == nil {
		t.Error("Upsert() on upsert-less index expected error, got nil")
	}
}

func TestMemoryIndex_ExistingIDsAndDelete(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	mustEnsure(t, idx, "docs")

	points := []Point{
		{ID: "a", Vec: []float32{1, 0}},
		{ID: "b", Vec: []float32{0, 1}},
	}
	if err := idx.Upsert(ctx, "docs", points); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}

	existing, err := idx.ExistingIDs(ctx, "docs", []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("ExistingIDs() unexpected error: %v", err)
	}
	if len(existing) != 2 {
		t.Errorf("ExistingIDs() = %v, want 2 ids", existing)
	}

	if err := idx.Delete(ctx, "docs", []string{"a"}); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if got := idx.Count("docs"); got != 1 {
		t.Errorf("Count() = %d after delete, want 1", got)
	}
}

func TestMemoryIndex_ListCollections(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	names, err := idx.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections() unexpected error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("ListCollections() = %v on empty index", names)
	}

	mustEnsure(t, idx, "b.example.com")
	mustEnsure(t, idx, "a.example.com")
	mustEnsure(t, idx, "a.example.com") // idempotent

	names, err = idx.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections() unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "a.example.com" || names[1] != "b.example.com" {
		t.Errorf("ListCollections() = %v", names)
	}
}

func TestMemoryIndex_UnknownCollection(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	if _, err := idx.Query(ctx, "nope", []float32{1}, 1); err == nil {
		t.Error("Query() on unknown collection expected error, got nil")
	}
	if err := idx.Upsert(ctx, "nope", []Point{{ID: "a", Vec: []float32{1}}}); err == nil {
		t.Error("Upsert() on unknown collection expected error, got nil")
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, want: 0},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: 2},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineDistance(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("cosineDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

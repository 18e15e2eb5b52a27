package retriever

import (
	"math/rand"
	"sort"
	"testing"
)

func chunk(url string, dist float32) Chunk {
	return Chunk{Text: "text from " + url, URL: url, Distance: dist}
}

func TestNSmallest(t *testing.T) {
	pool := []Chunk{
		chunk("a", 0.9), chunk("b", 0.1), chunk("c", 0.5),
		chunk("d", 0.3), chunk("e", 0.7),
	}

	got := nSmallest(pool, 3)
	if len(got) != 3 {
		t.Fatalf("nSmallest() returned %d, want 3", len(got))
	}
	wantOrder := []string{"b", "d", "c"}
	for i, w := range wantOrder {
		if got[i].URL != w {
			t.Errorf("result[%d] = %s (%v), want %s", i, got[i].URL, got[i].Distance, w)
		}
	}
}

func TestNSmallest_Bounds(t *testing.T) {
	pool := []Chunk{chunk("a", 0.2), chunk("b", 0.1)}

	if got := nSmallest(pool, 10); len(got) != 2 {
		t.Errorf("n larger than pool: got %d results, want 2", len(got))
	}
	if got := nSmallest(pool, 0); got != nil {
		t.Errorf("n=0: got %v, want nil", got)
	}
	if got := nSmallest(nil, 5); len(got) != 0 {
		t.Errorf("empty pool: got %d results, want 0", len(got))
	}
}

func TestNSmallest_MatchesFullSort(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := make([]Chunk, 500)
	for i := range pool {
		pool[i] = Chunk{URL: "u", Distance: rng.Float32()}
	}

	got := nSmallest(pool, 37)

	full := make([]Chunk, len(pool))
	copy(full, pool)
	sort.Slice(full, func(i, j int) bool { return full[i].Distance < full[j].Distance })

	for i := range got {
		if got[i].Distance != full[i].Distance {
			t.Fatalf("result[%d].Distance = %v, want %v", i, got[i].Distance, full[i].Distance)
		}
	}
}

func TestDiversify_NeverExceedsTopK(t *testing.T) {
	pool := []Chunk{
		chunk("a", 0.1), chunk("a", 0.2), chunk("b", 0.3),
		chunk("b", 0.4), chunk("c", 0.5),
	}

	for topK := 0; topK <= 7; topK++ {
		got := diversify(pool, topK)
		want := topK
		if want > len(pool) {
			want = len(pool)
		}
		if len(got) != want {
			t.Errorf("topK=%d: got %d results, want %d", topK, len(got), want)
		}
	}
}

func TestDiversify_PrefersDistinctURLs(t *testing.T) {
	// Three near-duplicates from one source outrank everything else,
	// but three distinct URLs exist: all three must appear.
	pool := []Chunk{
		chunk("a", 0.10), chunk("a", 0.11), chunk("a", 0.12),
		chunk("b", 0.50), chunk("c", 0.90),
	}

	got := diversify(pool, 3)
	urls := map[string]int{}
	for _, c := range got {
		urls[c.URL]++
	}
	if len(urls) != 3 {
		t.Fatalf("got URLs %v, want 3 distinct", urls)
	}
	if got[0].URL != "a" || got[1].URL != "b" || got[2].URL != "c" {
		t.Errorf("diversity order wrong: %v %v %v", got[0].URL, got[1].URL, got[2].URL)
	}
}

func TestDiversify_BackfillsWhenFewURLs(t *testing.T) {
	// Two distinct URLs, five candidates, topK 4: both URLs plus the two
	// next-best duplicates by distance.
	pool := []Chunk{
		chunk("a", 0.1), chunk("b", 0.2), chunk("a", 0.3),
		chunk("b", 0.4), chunk("a", 0.5),
	}

	got := diversify(pool, 4)
	if len(got) != 4 {
		t.Fatalf("got %d results, want 4", len(got))
	}

	urls := map[string]bool{}
	for _, c := range got {
		urls[c.URL] = true
	}
	if !urls["a"] || !urls["b"] {
		t.Errorf("result missing one of the distinct URLs: %v", urls)
	}
	// Backfill proceeds by distance: 0.3 then 0.4, never 0.5.
	if got[2].Distance != 0.3 || got[3].Distance != 0.4 {
		t.Errorf("backfill distances = %v, %v; want 0.3, 0.4", got[2].Distance, got[3].Distance)
	}
}

func TestDiversify_SingleSourceStillFills(t *testing.T) {
	pool := []Chunk{chunk("a", 0.1), chunk("a", 0.2), chunk("a", 0.3)}

	got := diversify(pool, 3)
	if len(got) != 3 {
		t.Errorf("got %d results from single-source pool, want 3", len(got))
	}
}

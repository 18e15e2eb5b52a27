package retriever

import "container/heap"

// nSmallest returns the n candidates with the smallest distance in ascending
// order. It keeps a bounded max-heap instead of sorting the whole pool, so
// large merged pools cost O(len(candidates) * log n).
func nSmallest(candidates []Chunk, n int) []Chunk {
	if n <= 0 {
		return nil
	}
	if n > len(candidates) {
		n = len(candidates)
	}

	h := make(distMaxHeap, 0, n)
	for _, c := range candidates {
		if len(h) < n {
			heap.Push(&h, c)
			continue
		}
		if c.Distance < h[0].Distance {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	out := make([]Chunk, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Chunk)
	}
	return out
}

// diversify walks candidates in ascending-distance order accepting each URL
// only once, then backfills with the next-best remaining candidates
// regardless of URL until topK is reached or candidates run out. The result
// never exceeds topK and under-fills only when the pool itself is smaller.
func diversify(sorted []Chunk, topK int) []Chunk {
	if topK <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	picked := make(map[int]struct{})
	result := make([]Chunk, 0, topK)

	for i, c := range sorted {
		if len(result) >= topK {
			break
		}
		if _, dup := seen[c.URL]; dup {
			continue
		}
		seen[c.URL] = struct{}{}
		picked[i] = struct{}{}
		result = append(result, c)
	}

	for i, c := range sorted {
		if len(result) >= topK {
			break
		}
		if _, ok := picked[i]; ok {
			continue
		}
		picked[i] = struct{}{}
		result = append(result, c)
	}

	return result
}

// distMaxHeap orders chunks with the largest distance at the root so the
// worst kept candidate is cheap to evict.
type distMaxHeap []Chunk

func (h distMaxHeap) Len() int            { return len(h) }
func (h distMaxHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h distMaxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distMaxHeap) Push(x any)         { *h = append(*h, x.(Chunk)) }
func (h *distMaxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

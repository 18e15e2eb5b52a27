// Package metrics keeps in-process counters for the service's request paths.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of all counters. Durations are cumulative
// across requests, in milliseconds.
type Snapshot struct {
	IngestRequests   int64 `json:"ingest_requests"`
	ChunksStored     int64 `json:"chunks_stored"`
	IngestDurationMs int64 `json:"ingest_duration_ms"`
	AskRequests      int64 `json:"ask_requests"`
	AskNoContext     int64 `json:"ask_no_context"`
	AskDurationMs    int64 `json:"ask_duration_ms"`
	SearchRequests   int64 `json:"search_requests"`
	SearchWebServed  int64 `json:"search_web_served"`
	Errors           int64 `json:"errors"`
}

// Registry accumulates counters. Safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RecordIngest counts one ingest request that stored the given number of
// chunks in the given time.
func (r *Registry) RecordIngest(chunksStored int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.IngestRequests++
	r.snap.ChunksStored += int64(chunksStored)
	r.snap.IngestDurationMs += duration.Milliseconds()
}

// RecordAsk counts one answered question. noContext marks questions that
// retrieved nothing.
func (r *Registry) RecordAsk(noContext bool, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.AskRequests++
	if noContext {
		r.snap.AskNoContext++
	}
	r.snap.AskDurationMs += duration.Milliseconds()
}

// RecordSearch counts one search request. web marks requests served by the
// external provider rather than the local index.
func (r *Registry) RecordSearch(web bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.SearchRequests++
	if web {
		r.snap.SearchWebServed++
	}
}

// RecordError counts one request-level failure.
func (r *Registry) RecordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.Errors++
}

// Snapshot returns a copy of the current counters.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

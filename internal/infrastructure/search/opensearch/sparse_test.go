package opensearch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSparseAdapter_SearchReturnsRankedHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.Contains(r.URL.Path, "_search") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"took": 3,
				"hits": {
					"total": {"value": 2},
					"max_score": 4.2,
					"hits": [
						{"_id": "doc-1", "_score": 4.2, "_source": {"chunk_id": "chunk-1"}},
						{"_id": "doc-2", "_score": 1.1, "_source": {"chunk_id": "chunk-2"}}
					]
				}
			}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	searcher := newTestSearcher(server.URL)
	adapter := NewSparseAdapter(searcher, SparseAdapterConfig{
		IndexName:    "chunks",
		TextField:    "text",
		ChunkIDField: "chunk_id",
	}, newMockLogger())

	hits := adapter.Search("massive hemoptysis", 10)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "chunk-1" || hits[0].Score != 4.2 {
		t.Errorf("unexpected first hit: %+v", hits[0])
	}
	if hits[1].ChunkID != "chunk-2" {
		t.Errorf("unexpected second hit: %+v", hits[1])
	}
}

func TestSparseAdapter_SearchFailureDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"search_phase_execution_exception","reason":"boom"}}`))
	}))
	defer server.Close()

	searcher := newTestSearcher(server.URL)
	adapter := NewSparseAdapter(searcher, SparseAdapterConfig{
		IndexName:    "chunks",
		TextField:    "text",
		ChunkIDField: "chunk_id",
	}, newMockLogger())

	hits := adapter.Search("anything", 10)
	if hits != nil {
		t.Errorf("expected nil hits on backend failure, got %+v", hits)
	}
}

func TestChunkIDFromSource_FallsBackToDocID(t *testing.T) {
	if got := chunkIDFromSource(nil, "chunk_id", "doc-1"); got != "doc-1" {
		t.Errorf("expected fallback to doc id, got %q", got)
	}
	if got := chunkIDFromSource([]byte(`{"chunk_id":"chunk-9"}`), "chunk_id", "doc-1"); got != "chunk-9" {
		t.Errorf("expected chunk-9, got %q", got)
	}
}

// Package retrieval is the application-level hybrid retriever service: it
// wires the pure domain scoring/merge/filter logic in internal/domain/
// retriever to the dense vector store, the sparse backend, the term index
// and the optional cross-encoder reranker, and implements
// contract and its degradation behavior.
package retrieval

import (
	"context"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// DenseHit is a single scored candidate returned by the dense vector store.
type DenseHit struct {
	ChunkID string
	Score float64 // cosine similarity, already in [0,1]
	Chunk *rtypes.Chunk
}

// DenseIndexClient is the port implemented by the Milvus adapter
// (internal/infrastructure/search/milvus). A nil error with a nil/empty
// result is a valid "no matches" response; a non-nil error means the store
// itself is unavailable and triggers degradation.
type DenseIndexClient interface {
	Search(ctx context.Context, query string, topM int) ([]DenseHit, error)
}

// SparseSearcher is the port satisfied by both the in-memory BM25 index
// (internal/domain/bm25) and the OpenSearch adapter
// (internal/infrastructure/search/opensearch), selected by
// retrieval.sparse_backend.
type SparseSearcher interface {
	Search(query string, topM int) []SparseHit
}

// SparseHit mirrors bm25.Hit so this package does not need to import the
// bm25 package directly; the OpenSearch adapter returns the same shape.
type SparseHit struct {
	ChunkID string
	Score float64
}

// ChunkStore resolves a chunk_id to its full Chunk payload, backing both
// the exact-match stage and sparse-hit hydration.
type ChunkStore interface {
	Get(chunkID string) (*rtypes.Chunk, bool)
}

// TermIndex is the port satisfied by internal/domain/termindex.Index.
type TermIndex interface {
	LookupCPT(code string) []string
	LookupAlias(alias string) []string
	Aliases() []string
}

// Reranker is the cross-encoder second-stage scorer, treated as an
// external collaborator behind this interface — no model runtime is
// embedded in this service.
type Reranker interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

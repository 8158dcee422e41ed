package milvus

import (
	"context"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/russellmiller49/ip-assist-lite/internal/application/retrieval"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/llm"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

// DenseAdapterConfig names the collection and fields the dense index client
// searches against.
type DenseAdapterConfig struct {
	CollectionName string
	VectorField string
	ChunkIDField string
	MetricType entity.MetricType
}

// DenseAdapter implements internal/application/retrieval.DenseIndexClient
// (KNNSearch contract) over the generic Searcher: it encodes the
// query text with the query embedder, runs a single-vector Milvus search,
// and hydrates each hit's chunk_id against the shared chunk store.
type DenseAdapter struct {
	searcher *Searcher
	embedder llm.Embedder
	chunks retrieval.ChunkStore
	cfg DenseAdapterConfig
}

// NewDenseAdapter wires the dense index client.
func NewDenseAdapter(searcher *Searcher, embedder llm.Embedder, chunks retrieval.ChunkStore, cfg DenseAdapterConfig) *DenseAdapter {
	if cfg.MetricType == "" {
		cfg.MetricType = entity.COSINE
	}
	return &DenseAdapter{searcher: searcher, embedder: embedder, chunks: chunks, cfg: cfg}
}

// Search encodes query, runs the KNN search, and returns topM cosine-scored
// hits with their chunk hydrated from the shared chunk store.
func (a *DenseAdapter) Search(ctx context.Context, query string, topM int) ([]retrieval.DenseHit, error) {
	vectors, err := a.embedder.Encode(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New(errors.ErrCodeDenseStoreError, "query embedder returned no vector")
	}

	result, err := a.searcher.Search(ctx, VectorSearchRequest{
			CollectionName: a.cfg.CollectionName,
			VectorFieldName: a.cfg.VectorField,
			Vectors: vectors,
			TopK: topM,
			MetricType: a.cfg.MetricType,
			OutputFields: []string{a.cfg.ChunkIDField},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDenseStoreError, "dense index search failed")
	}
	if len(result.Results) == 0 {
		return nil, nil
	}

	hits := result.Results[0]
	out := make([]retrieval.DenseHit, 0, len(hits))
	for _, h := range hits {
		chunkID, _ := h.Fields[a.cfg.ChunkIDField].(string)
		if chunkID == "" {
			continue
		}
		chunk, _ := a.chunks.Get(chunkID)
		out = append(out, retrieval.DenseHit{ChunkID: chunkID, Score: float64(h.Score), Chunk: chunk})
	}
	return out, nil
}

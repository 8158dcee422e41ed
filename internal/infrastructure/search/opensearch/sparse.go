package opensearch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/russellmiller49/ip-assist-lite/internal/application/retrieval"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
)

// SparseAdapterConfig names the index and fields the sparse text search
// runs against when retrieval.sparse_backend=opensearch.
type SparseAdapterConfig struct {
	IndexName string
	TextField string
	ChunkIDField string
	SearchTimeout time.Duration
}

// SparseAdapter implements internal/application/retrieval.SparseSearcher
// over the generic Searcher, as the alternate backend to the in-memory
// BM25 index (internal/domain/bm25) selected by retrieval.sparse_backend.
//
// SparseSearcher has no error return (the in-memory index can never fail),
// so a query failure here degrades to an empty hit list rather than
// propagating: the hybrid retriever's own degradation policy treats
// a sparse backend outage as "no sparse candidates this round", not a
// fatal error.
type SparseAdapter struct {
	searcher *Searcher
	cfg SparseAdapterConfig
	logger logging.Logger
}

// NewSparseAdapter wires the OpenSearch sparse text backend.
func NewSparseAdapter(searcher *Searcher, cfg SparseAdapterConfig, logger logging.Logger) *SparseAdapter {
	if cfg.SearchTimeout == 0 {
		cfg.SearchTimeout = 5 * time.Second
	}
	return &SparseAdapter{searcher: searcher, cfg: cfg, logger: logger}
}

// Search runs a match query over TextField and returns the top topM hits
// ranked by OpenSearch's own BM25 relevance score.
func (a *SparseAdapter) Search(query string, topM int) []retrieval.SparseHit {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.SearchTimeout)
	defer cancel()

	result, err := a.searcher.Search(ctx, SearchRequest{
			IndexName: a.cfg.IndexName,
			Query: &Query{
				QueryType: "match",
				Field: a.cfg.TextField,
				Value: query,
				Boost: 1.0,
			},
			Pagination: &Pagination{Offset: 0, Limit: topM},
			SourceIncludes: []string{a.cfg.ChunkIDField},
	})
	if err != nil {
		a.logger.Warn("opensearch sparse search failed, degrading to empty result",
			logging.String("index", a.cfg.IndexName), logging.Err(err))
		return nil
	}

	hits := make([]retrieval.SparseHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		chunkID := chunkIDFromSource(h.Source, a.cfg.ChunkIDField, h.ID)
		if chunkID == "" {
			continue
		}
		hits = append(hits, retrieval.SparseHit{ChunkID: chunkID, Score: h.Score})
	}
	return hits
}

func chunkIDFromSource(source json.RawMessage, field, fallback string) string {
	if len(source) == 0 {
		return fallback
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(source, &decoded); err != nil {
		return fallback
	}
	if v, ok := decoded[field].(string); ok && v != "" {
		return v
	}
	return fallback
}

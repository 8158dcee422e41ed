package retrieval

import (
	"context"

	"github.com/russellmiller49/ip-assist-lite/internal/domain/precedence"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/retriever"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/termindex"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// Service implements hybrid retriever contract:
// Search(ctx, query, k, filters, useReranker) -> ([]RetrievedHit, error).
type Service struct {
	dense DenseIndexClient
	sparse SparseSearcher
	terms TermIndex
	chunks ChunkStore
	reranker Reranker
	weights precedence.Weights
	logger logging.Logger

	currentYear func() int
}

// NewService wires the hybrid retriever's dependencies. reranker may be nil
// (use_reranker requests are then honored with no-op scoring). currentYear
// lets tests and the emergency fast path pin the clock; production callers
// pass a closure over time.Now().Year.
func NewService(dense DenseIndexClient, sparse SparseSearcher, terms TermIndex, chunks ChunkStore, reranker Reranker, weights precedence.Weights, logger logging.Logger, currentYear func() int) *Service {
	return &Service{
		dense: dense, sparse: sparse, terms: terms, chunks: chunks,
		reranker: reranker, weights: weights, logger: logger, currentYear: currentYear,
	}
}

// Search executes the full algorithm: dense + sparse + exact retrieval,
// fusion, scoring, filtering, optional reranking, tie-break, top-k.
func (s *Service) Search(ctx context.Context, query string, k int, filters rtypes.Filters, useReranker bool, class rtypes.Classification) ([]*rtypes.RetrievedHit, []string, error) {
	if k < 1 || k > 50 {
		return nil, nil, errors.New(errors.ErrCodeInvalidTopK, "top_k must be in [1, 50]")
	}
	topM := k * 3
	if topM < 60 {
		topM = 60
	}

	var warnings []string
	denseCands, denseErr := s.searchDense(ctx, query, topM)
	sparseCands := s.searchSparse(query, topM)

	if denseErr != nil && sparseCands == nil {
		return nil, nil, errors.Wrap(denseErr, errors.ErrCodeRetrievalUnavailable, "both dense and sparse retrieval are unavailable")
	}
	if denseErr != nil {
		warnings = append(warnings, "dense retrieval unavailable; results degraded to sparse+exact")
		s.logger.Warn("dense retrieval unavailable", logging.Err(denseErr))
	}
	if s.sparse == nil {
		warnings = append(warnings, "sparse index unavailable; results degraded to dense+exact")
	}

	exactCands := s.searchExact(query)

	merged := retriever.Merge(denseCands, retriever.NormalizeSparse(sparseCands), exactCands)
	year := 2026
	if s.currentYear != nil {
		year = s.currentYear()
	}
	retriever.ScoreAll(s.weights, merged, class, year)
	filtered := retriever.ApplyFilters(merged, filters)
	retriever.SortHits(filtered)
	retriever.AllowStandardOfCareSwaps(filtered)

	if useReranker && s.reranker != nil && len(filtered) > 0 {
		n := len(filtered)
		if n > retriever.RerankTopN {
			n = retriever.RerankTopN
		}
		texts := make([]string, n)
		for i := 0; i < n; i++ {
			if filtered[i].Chunk != nil {
				texts[i] = filtered[i].Chunk.Text
			}
		}
		scores, err := s.reranker.Score(ctx, query, texts)
		if err != nil {
			warnings = append(warnings, "reranker unavailable; using fusion score only")
			s.logger.Warn("reranker unavailable", logging.Err(err))
		} else {
			retriever.ApplyReranker(filtered, scores)
		}
	}

	return retriever.TopK(filtered, k), warnings, nil
}

func (s *Service) searchDense(ctx context.Context, query string, topM int) ([]retriever.Candidate, error) {
	if s.dense == nil {
		return nil, errors.New(errors.ErrCodeDenseStoreError, "no dense index client configured")
	}
	hits, err := s.dense.Search(ctx, query, topM)
	if err != nil {
		return nil, err
	}
	out := make([]retriever.Candidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, retriever.Candidate{ChunkID: h.ChunkID, RawScore: h.Score, Chunk: h.Chunk})
	}
	return out, nil
}

func (s *Service) searchSparse(query string, topM int) []retriever.Candidate {
	if s.sparse == nil {
		return nil
	}
	hits := s.sparse.Search(query, topM)
	out := make([]retriever.Candidate, 0, len(hits))
	for _, h := range hits {
		chunk, _ := s.lookupChunk(h.ChunkID)
		out = append(out, retriever.Candidate{ChunkID: h.ChunkID, RawScore: h.Score, Chunk: chunk})
	}
	return out
}

func (s *Service) searchExact(query string) []retriever.Candidate {
	if s.terms == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []retriever.Candidate
	add := func(chunkIDs []string) {
		for _, id := range chunkIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			chunk, _ := s.lookupChunk(id)
			out = append(out, retriever.Candidate{ChunkID: id, RawScore: 1.0, Chunk: chunk})
		}
	}
	for _, cpt := range termindex.FindCPTTokens(query) {
		add(s.terms.LookupCPT(cpt))
	}
	for _, alias := range s.terms.Aliases() {
		if containsSubstring(query, alias) {
			add(s.terms.LookupAlias(alias))
		}
	}
	return out
}

func (s *Service) lookupChunk(chunkID string) (*rtypes.Chunk, bool) {
	if s.chunks == nil {
		return nil, false
	}
	return s.chunks.Get(chunkID)
}

func containsSubstring(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

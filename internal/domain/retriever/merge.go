// Package retriever holds the hybrid retriever's pure fusion, scoring,
// filtering and tie-break logic. It has no I/O: the dense/sparse/
// exact candidate lists are produced by application/retrieval and its
// infrastructure adapters and handed in here already scored.
package retriever

import (
	"sort"

	"github.com/russellmiller49/ip-assist-lite/internal/domain/precedence"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// Candidate is a single-source scored hit before fusion.
type Candidate struct {
	ChunkID string
	RawScore float64
	Chunk *rtypes.Chunk
}

// Merge fuses dense, sparse and exact candidate lists by chunk_id (// step 4): source_flags are unioned, and the raw score recorded per source
// is the maximum seen for that (chunk_id, source) pair. Exact candidates
// always carry raw_score=1.0 and set the exact_bonus flag.
func Merge(dense, sparse, exact []Candidate) []*rtypes.RetrievedHit {
	byID := make(map[string]*rtypes.RetrievedHit)

	merge := func(cands []Candidate, flag rtypes.SourceFlag, exactBonus bool) {
		for _, c := range cands {
			hit, ok := byID[c.ChunkID]
			if !ok {
				hit = &rtypes.RetrievedHit{
					ChunkID: c.ChunkID,
					RawScoreBySource: map[rtypes.SourceFlag]float64{},
					Chunk: c.Chunk,
				}
				byID[c.ChunkID] = hit
			}
			if hit.Chunk == nil {
				hit.Chunk = c.Chunk
			}
			if c.RawScore > hit.RawScoreBySource[flag] {
				hit.RawScoreBySource[flag] = c.RawScore
			}
			hit.AddSource(flag)
			if exactBonus {
				hit.ExactBonus = true
			}
		}
	}

	merge(dense, rtypes.SourceDense, false)
	merge(sparse, rtypes.SourceSparse, false)
	merge(exact, rtypes.SourceExact, true)

	out := make([]*rtypes.RetrievedHit, 0, len(byID))
	for _, h := range byID {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkID < out[j].ChunkID })
	return out
}

// NormalizeSparse divides each sparse candidate's raw score by the top-1
// score of the batch (step 2), leaving the list untouched if it is
// empty or the top score is zero — "no division by zero".
func NormalizeSparse(cands []Candidate) []Candidate {
	if len(cands) == 0 {
		return cands
	}
	top := cands[0].RawScore
	for _, c := range cands {
		if c.RawScore > top {
			top = c.RawScore
		}
	}
	if top <= 0 {
		return cands
	}
	out := make([]Candidate, len(cands))
	for i, c := range cands {
		c.RawScore = c.RawScore / top
		out[i] = c
	}
	return out
}

// AllowStandardOfCareSwaps walks hits looking for adjacent (by score) top
// candidates that share a topic cluster and applies the standard-of-care
// guard, swapping an under-qualified A4-over-A1 pair.
func AllowStandardOfCareSwaps(hits []*rtypes.RetrievedHit) {
	for i := 0; i+1 < len(hits); i++ {
		if hits[i].Chunk == nil || hits[i+1].Chunk == nil {
			continue
		}
		if !precedence.SameTopicCluster(hits[i].Chunk, hits[i+1].Chunk) {
			continue
		}
		a, b := precedence.EnforceStandardOfCareGuard(hits[i], hits[i+1])
		hits[i], hits[i+1] = a, b
	}
}

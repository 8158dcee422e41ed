package retriever

import (
	"sort"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

var authorityRank = map[rtypes.AuthorityTier]int{
	rtypes.AuthorityA1: 0,
	rtypes.AuthorityA2: 1,
	rtypes.AuthorityA3: 2,
	rtypes.AuthorityA4: 3,
}

// SortHits orders hits by descending final_score, breaking ties by higher
// authority tier, then more recent year, then shorter text, then chunk_id
// lexicographic — the exact tie-break order.
func SortHits(hits []*rtypes.RetrievedHit) {
	sort.SliceStable(hits, func(i, j int) bool {
			a, b := hits[i], hits[j]
			if a.FinalScore != b.FinalScore {
				return a.FinalScore > b.FinalScore
			}
			if a.Chunk != nil && b.Chunk != nil {
				ra, rb := authorityRank[a.Chunk.AuthorityTier], authorityRank[b.Chunk.AuthorityTier]
				if ra != rb {
					return ra < rb
				}
				if a.Chunk.Year != b.Chunk.Year {
					return a.Chunk.Year > b.Chunk.Year
				}
				if len(a.Chunk.Text) != len(b.Chunk.Text) {
					return len(a.Chunk.Text) < len(b.Chunk.Text)
				}
			}
			return a.ChunkID < b.ChunkID
	})
}

// TopK truncates hits to at most k entries.
func TopK(hits []*rtypes.RetrievedHit, k int) []*rtypes.RetrievedHit {
	if k <= 0 || k >= len(hits) {
		return hits
	}
	return hits[:k]
}

package retriever

import rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"

// RerankTopN returns the number of top-scored hits eligible for the
// cross-encoder second stage (step 7, "take top-30").
const RerankTopN = 30

// ApplyReranker blends each hit's final_score with its reranker_score
// (0.5/0.5, step 7) for the leading RerankTopN hits in already-sorted
// order, then re-sorts. scores must align 1:1 with the leading slice of
// hits passed to it.
func ApplyReranker(hits []*rtypes.RetrievedHit, scores []float64) {
	n := len(hits)
	if n > RerankTopN {
		n = RerankTopN
	}
	if len(scores) < n {
		n = len(scores)
	}
	for i := 0; i < n; i++ {
		hits[i].RerankerScore = scores[i]
		hits[i].FinalScore = 0.5*hits[i].FinalScore + 0.5*scores[i]
	}
	SortHits(hits)
}

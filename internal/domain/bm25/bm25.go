// Package bm25 implements the BM25 index (leaf component #3): an
// in-memory sparse index over chunk text with whitespace + lowercase
// tokenization, the native sparse backend selected by
// retrieval.sparse_backend=bm25 (the default).
package bm25

import (
	"math"
	"sort"
	"strings"
)

const (
	// k1 and b are the standard BM25 Okapi tuning constants.
	k1 = 1.5
	b = 0.75
)

// document is one tokenized corpus entry.
type document struct {
	chunkID string
	terms []string
	termSet map[string]int // term -> frequency within this document
	length int
}

// Index is an immutable-after-Build, in-memory BM25 sparse index.
type Index struct {
	docs []document
	docFreq map[string]int // term -> number of documents containing it
	avgDocLen float64
	n int
}

// New constructs an empty Index.
func New() *Index {
	return &Index{docFreq: make(map[string]int)}
}

// tokenize lowercases and splits on whitespace, per leaf spec
// ("whitespace + lowercase tokenization") — deliberately no stemming or
// punctuation stripping beyond what whitespace splitting already removes.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Add indexes a single chunk's text under chunkID. Call Build after all
// documents have been added.
func (idx *Index) Add(chunkID, text string) {
	terms := tokenize(text)
	termSet := make(map[string]int, len(terms))
	for _, t := range terms {
		termSet[t]++
	}
	idx.docs = append(idx.docs, document{
			chunkID: chunkID,
			terms: terms,
			termSet: termSet,
			length: len(terms),
	})
}

// Build finalizes the index: computes document frequencies and the average
// document length needed by the BM25 scoring formula. The index is
// immutable after Build, matching the server-lifetime immutability
// guarantee.
func (idx *Index) Build() {
	idx.docFreq = make(map[string]int)
	var totalLen int
	for _, d := range idx.docs {
		for term := range d.termSet {
			idx.docFreq[term]++
		}
		totalLen += d.length
	}
	idx.n = len(idx.docs)
	if idx.n > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.n)
	}
}

// Hit is a single scored BM25 result.
type Hit struct {
	ChunkID string
	Score float64
}

// Search returns the top-k highest-scoring documents for query, sorted by
// descending score then chunk_id for determinism on ties.
func (idx *Index) Search(query string, topK int) []Hit {
	if idx.n == 0 {
		return nil
	}
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	scores := make(map[int]float64)
	for _, term := range dedupe(queryTerms) {
		df := idx.docFreq[term]
		if df == 0 {
			continue
		}
		idf := math.Log(1 + (float64(idx.n)-float64(df)+0.5)/(float64(df)+0.5))
		for i, d := range idx.docs {
			tf, ok := d.termSet[term]
			if !ok {
				continue
			}
			denom := float64(tf) + k1*(1-b+b*float64(d.length)/idx.avgDocLen)
			scores[i] += idf * (float64(tf) * (k1 + 1) / denom)
		}
	}

	hits := make([]Hit, 0, len(scores))
	for i, s := range scores {
		if s > 0 {
			hits = append(hits, Hit{ChunkID: idx.docs[i].chunkID, Score: s})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
			if hits[i].Score != hits[j].Score {
				return hits[i].Score > hits[j].Score
			}
			return hits[i].ChunkID < hits[j].ChunkID
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

func dedupe(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Len returns the number of documents currently indexed.
func (idx *Index) Len() int { return idx.n }

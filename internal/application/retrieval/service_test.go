package retrieval

import (
	"context"
	"testing"

	"github.com/russellmiller49/ip-assist-lite/internal/domain/precedence"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

type fakeDense struct {
	hits []DenseHit
	err  error
}

func (f *fakeDense) Search(ctx context.Context, query string, topM int) ([]DenseHit, error) {
	return f.hits, f.err
}

type fakeSparse struct{ hits []SparseHit }

func (f *fakeSparse) Search(query string, topM int) []SparseHit { return f.hits }

type fakeChunkStore struct{ chunks map[string]*rtypes.Chunk }

func (f *fakeChunkStore) Get(id string) (*rtypes.Chunk, bool) {
	c, ok := f.chunks[id]
	return c, ok
}

type fakeTermIndex struct {
	cpt    map[string][]string
	alias  map[string][]string
	aliass []string
}

func (f *fakeTermIndex) LookupCPT(code string) []string   { return f.cpt[code] }
func (f *fakeTermIndex) LookupAlias(a string) []string    { return f.alias[a] }
func (f *fakeTermIndex) Aliases() []string                { return f.aliass }

func chunkFixture(id string) *rtypes.Chunk {
	return &rtypes.Chunk{
		ChunkID: id, DocID: "doc-" + id, AuthorityTier: rtypes.AuthorityA1,
		EvidenceLevel: rtypes.EvidenceH1, Domain: rtypes.DomainClinical, Year: 2024,
		SectionKind: rtypes.SectionGeneral, Text: "some clinical text",
	}
}

func TestSearch_MergesAllThreeSources(t *testing.T) {
	chunks := map[string]*rtypes.Chunk{"c1": chunkFixture("c1"), "c2": chunkFixture("c2")}
	svc := NewService(
		&fakeDense{hits: []DenseHit{{ChunkID: "c1", Score: 0.9, Chunk: chunks["c1"]}}},
		&fakeSparse{hits: []SparseHit{{ChunkID: "c2", Score: 3.0}}},
		&fakeTermIndex{cpt: map[string][]string{}, alias: map[string][]string{}, aliass: nil},
		&fakeChunkStore{chunks: chunks},
		nil,
		precedence.DefaultWeights(),
		logging.NewNopLogger(),
		func() int { return 2024 },
	)
	hits, warnings, err := svc.Search(context.Background(), "test query", 5, rtypes.Filters{}, false, rtypes.ClassClinical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d (%v)", len(hits), warnings)
	}
}

func TestSearch_DenseUnavailableDegradesToSparse(t *testing.T) {
	chunks := map[string]*rtypes.Chunk{"c1": chunkFixture("c1")}
	svc := NewService(
		&fakeDense{err: errTest("milvus down")},
		&fakeSparse{hits: []SparseHit{{ChunkID: "c1", Score: 1.0}}},
		&fakeTermIndex{},
		&fakeChunkStore{chunks: chunks},
		nil,
		precedence.DefaultWeights(),
		logging.NewNopLogger(),
		func() int { return 2024 },
	)
	hits, warnings, err := svc.Search(context.Background(), "q", 5, rtypes.Filters{}, false, rtypes.ClassClinical)
	if err != nil {
		t.Fatalf("expected degraded success, got error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit from sparse, got %d", len(hits))
	}
	if len(warnings) == 0 {
		t.Fatal("expected a degradation warning")
	}
}

func TestSearch_BothUnavailableReturnsError(t *testing.T) {
	svc := NewService(
		&fakeDense{err: errTest("milvus down")},
		nil,
		&fakeTermIndex{},
		&fakeChunkStore{chunks: map[string]*rtypes.Chunk{}},
		nil,
		precedence.DefaultWeights(),
		logging.NewNopLogger(),
		func() int { return 2024 },
	)
	_, _, err := svc.Search(context.Background(), "q", 5, rtypes.Filters{}, false, rtypes.ClassClinical)
	if err == nil {
		t.Fatal("expected retrieval_unavailable error")
	}
}

func TestSearch_InvalidTopKRejected(t *testing.T) {
	svc := NewService(&fakeDense{}, &fakeSparse{}, &fakeTermIndex{}, &fakeChunkStore{chunks: map[string]*rtypes.Chunk{}}, nil, precedence.DefaultWeights(), logging.NewNopLogger(), func() int { return 2024 })
	if _, _, err := svc.Search(context.Background(), "q", 0, rtypes.Filters{}, false, rtypes.ClassClinical); err == nil {
		t.Fatal("expected error for top_k=0")
	}
}

func TestSearch_ExactCPTMatch(t *testing.T) {
	chunks := map[string]*rtypes.Chunk{"c1": chunkFixture("c1")}
	svc := NewService(
		&fakeDense{},
		&fakeSparse{},
		&fakeTermIndex{cpt: map[string][]string{"31622": {"c1"}}, alias: map[string][]string{}},
		&fakeChunkStore{chunks: chunks},
		nil,
		precedence.DefaultWeights(),
		logging.NewNopLogger(),
		func() int { return 2024 },
	)
	hits, _, err := svc.Search(context.Background(), "CPT 31622", 5, rtypes.Filters{}, false, rtypes.ClassCoding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || !hits[0].ExactBonus {
		t.Fatalf("expected 1 exact hit with bonus, got %+v", hits)
	}
}

func TestSearch_StandardOfCareGuardDemotesWeakA4(t *testing.T) {
	a4 := &rtypes.Chunk{
		ChunkID: "a4", DocID: "doc-a4", AuthorityTier: rtypes.AuthorityA4,
		EvidenceLevel: rtypes.EvidenceH4, Domain: rtypes.DomainClinical, Year: 2024,
		SectionKind: rtypes.SectionGeneral, Text: "newer but weak-evidence guidance",
		Aliases: []string{"bronchial thermoplasty"},
	}
	a1 := &rtypes.Chunk{
		ChunkID: "a1", DocID: "doc-a1", AuthorityTier: rtypes.AuthorityA1,
		EvidenceLevel: rtypes.EvidenceH1, Domain: rtypes.DomainClinical, Year: 2015,
		SectionKind: rtypes.SectionGeneral, Text: "established standard of care",
		Aliases: []string{"bronchial thermoplasty"},
	}
	chunks := map[string]*rtypes.Chunk{"a4": a4, "a1": a1}
	svc := NewService(
		&fakeDense{hits: []DenseHit{
			{ChunkID: "a4", Score: 1.0, Chunk: a4},
			{ChunkID: "a1", Score: 0.0, Chunk: a1},
		}},
		&fakeSparse{},
		&fakeTermIndex{},
		&fakeChunkStore{chunks: chunks},
		nil,
		precedence.DefaultWeights(),
		logging.NewNopLogger(),
		func() int { return 2024 },
	)

	hits, _, err := svc.Search(context.Background(), "bronchial thermoplasty", 5, rtypes.Filters{}, false, rtypes.ClassClinical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	scores := map[string]float64{hits[0].ChunkID: hits[0].FinalScore, hits[1].ChunkID: hits[1].FinalScore}
	if scores["a4"] <= scores["a1"] {
		t.Fatalf("expected a4 to raw-outscore a1 before the guard applies, got scores %v", scores)
	}
	if hits[0].ChunkID != "a1" || hits[1].ChunkID != "a4" {
		t.Fatalf("expected standard-of-care guard to demote weak-evidence a4 behind a1, got order %s, %s", hits[0].ChunkID, hits[1].ChunkID)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

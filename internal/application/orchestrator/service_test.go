package orchestrator

import (
	"context"
	"testing"

	retrievalapp "github.com/russellmiller49/ip-assist-lite/internal/application/retrieval"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/citation"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/precedence"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/querynorm"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/safety"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

type fakeDense struct{ hits []retrievalapp.DenseHit }

func (f *fakeDense) Search(ctx context.Context, query string, topM int) ([]retrievalapp.DenseHit, error) {
	return f.hits, nil
}

type fakeSparse struct{}

func (fakeSparse) Search(query string, topM int) []retrievalapp.SparseHit { return nil }

type fakeChunkStore struct{ chunks map[string]*rtypes.Chunk }

func (f *fakeChunkStore) Get(id string) (*rtypes.Chunk, bool) {
	c, ok := f.chunks[id]
	return c, ok
}

type fakeTermIndex struct{}

func (fakeTermIndex) LookupCPT(string) []string { return nil }
func (fakeTermIndex) LookupAlias(string) []string { return nil }
func (fakeTermIndex) Aliases() []string           { return nil }

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Generate(ctx context.Context, messages []Message, maxOutputTokens int) (GenerateResult, error) {
	if f.err != nil {
		return GenerateResult{}, f.err
	}
	return GenerateResult{Text: f.text}, nil
}

func chunk(id string, docType rtypes.DocType) *rtypes.Chunk {
	return &rtypes.Chunk{
		ChunkID: id, DocID: "doc-" + id, DocType: docType,
		AuthorityTier: rtypes.AuthorityA1, EvidenceLevel: rtypes.EvidenceH1,
		Domain: rtypes.DomainClinical, Year: 2024, SectionKind: rtypes.SectionGeneral,
		Text: "COPD is a chronic obstructive airway disease.",
	}
}

func newTestService(t *testing.T, llm LLMClient, chunks map[string]*rtypes.Chunk, denseHits []retrievalapp.DenseHit) *Service {
	t.Helper()
	retr := retrievalapp.NewService(
		&fakeDense{hits: denseHits},
		fakeSparse{},
		fakeTermIndex{},
		&fakeChunkStore{chunks: chunks},
		nil,
		precedence.DefaultWeights(),
		logging.NewNopLogger(),
		func() int { return 2026 },
	)
	return NewService(
		querynorm.New(),
		querynorm.ZeroMentionCounter{},
		retr,
		llm,
		citation.NewIndex(nil),
		safety.DefaultPostSynthesisCheckConfig(),
		nil,
		logging.NewNopLogger(),
	)
}

func TestAsk_ClinicalQuerySynthesizesWithCitation(t *testing.T) {
	c := chunk("c1", rtypes.DocTypeJournalArticle)
	chunks := map[string]*rtypes.Chunk{"c1": c}
	svc := newTestService(t, &fakeLLM{text: "COPD is obstructive lung disease [c1]."}, chunks, []retrievalapp.DenseHit{{ChunkID: "c1", Score: 0.9, Chunk: c}})

	resp, err := svc.Ask(context.Background(), "what is copd", 5, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.IsEmergency {
		t.Fatal("did not expect emergency routing")
	}
	if len(resp.Citations) != 1 || resp.Citations[0].DocID != "doc-c1" {
		t.Fatalf("expected one resolved citation, got %+v", resp.Citations)
	}
}

func TestAsk_HidesBookChapterFromVisibleCitations(t *testing.T) {
	c := chunk("c1", rtypes.DocTypeBookChapter)
	chunks := map[string]*rtypes.Chunk{"c1": c}
	svc := newTestService(t, &fakeLLM{text: "See background [c1]."}, chunks, []retrievalapp.DenseHit{{ChunkID: "c1", Score: 0.9, Chunk: c}})

	resp, err := svc.Ask(context.Background(), "what is copd", 5, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Citations) != 0 {
		t.Fatalf("expected book_chapter hidden from visible citations, got %+v", resp.Citations)
	}
	if len(resp.GroundingChunks) != 1 {
		t.Fatalf("expected grounding chunk retained even though hidden, got %+v", resp.GroundingChunks)
	}
}

func TestAsk_EmergencyBypassesLLM(t *testing.T) {
	c := chunk("c1", rtypes.DocTypeGuideline)
	chunks := map[string]*rtypes.Chunk{"c1": c}
	svc := newTestService(t, nil, chunks, []retrievalapp.DenseHit{{ChunkID: "c1", Score: 0.9, Chunk: c}})

	resp, err := svc.Ask(context.Background(), "management of massive hemoptysis", 5, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsEmergency {
		t.Fatal("expected emergency fast path")
	}
	if resp.Confidence != 1.0 {
		t.Fatalf("expected deterministic full confidence for canned protocol, got %v", resp.Confidence)
	}
}

func TestAsk_LLMUnavailableDegradesToEvidenceOnly(t *testing.T) {
	c := chunk("c1", rtypes.DocTypeJournalArticle)
	chunks := map[string]*rtypes.Chunk{"c1": c}
	svc := newTestService(t, &fakeLLM{err: errTest("provider down")}, chunks, []retrievalapp.DenseHit{{ChunkID: "c1", Score: 0.9, Chunk: c}})

	resp, err := svc.Ask(context.Background(), "what is copd", 5, false, nil)
	if err != nil {
		t.Fatalf("expected degraded success, got error: %v", err)
	}
	if resp.AnswerHTML != "" {
		t.Fatalf("expected no synthesized text, got %q", resp.AnswerHTML)
	}
	if len(resp.GroundingChunks) != 1 {
		t.Fatalf("expected grounding chunks preserved, got %+v", resp.GroundingChunks)
	}
	if len(resp.Citations) != 1 {
		t.Fatalf("expected citation preserved without synthesis, got %+v", resp.Citations)
	}
	if len(resp.SafetyWarnings) == 0 {
		t.Fatal("expected a warning describing the LLM outage")
	}
	if !resp.ReviewRequired {
		t.Fatal("expected evidence-only responses to be flagged for review")
	}
}

func TestAsk_NoLLMConfiguredDegradesToEvidenceOnly(t *testing.T) {
	c := chunk("c1", rtypes.DocTypeJournalArticle)
	chunks := map[string]*rtypes.Chunk{"c1": c}
	svc := newTestService(t, nil, chunks, []retrievalapp.DenseHit{{ChunkID: "c1", Score: 0.9, Chunk: c}})

	resp, err := svc.Ask(context.Background(), "what is copd", 5, false, nil)
	if err != nil {
		t.Fatalf("expected degraded success, got error: %v", err)
	}
	if resp.AnswerHTML != "" {
		t.Fatalf("expected no synthesized text, got %q", resp.AnswerHTML)
	}
	if len(resp.SafetyWarnings) == 0 {
		t.Fatal("expected a warning describing the missing LLM client")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

package citation

import (
	"testing"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

func chunks() []*rtypes.Chunk {
	return []*rtypes.Chunk{
		{ChunkID: "c1", DocID: "doc-a", DocType: rtypes.DocTypeJournalArticle, Year: 2020},
		{ChunkID: "c2", DocID: "doc-a", DocType: rtypes.DocTypeJournalArticle, Year: 2020},
		{ChunkID: "c3", DocID: "doc-b", DocType: rtypes.DocTypeBookChapter, Year: 2015},
		{ChunkID: "c4", DocID: "doc-c", DocType: rtypes.DocTypeGuideline, Year: 2022},
	}
}

func TestResolve_HidesBookChapterFromVisible(t *testing.T) {
	idx := NewIndex(map[string]rtypes.CitationRecord{
		"doc-b": {Authors: []string{"Smith J"}, Year: 2015, Title: "Airway Stenting", DocType: rtypes.DocTypeBookChapter},
	})
	cites := Resolve([]string{"c3"}, NewChunkLookup(chunks()), idx, nil)
	if len(cites) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(cites))
	}
	if cites[0].Visible {
		t.Fatal("expected book_chapter citation to be non-visible")
	}
}

func TestResolve_DedupesByDocID(t *testing.T) {
	idx := NewIndex(nil)
	cites := Resolve([]string{"c1", "c2"}, NewChunkLookup(chunks()), idx, nil)
	if len(cites) != 1 {
		t.Fatalf("expected dedup to 1 citation, got %d", len(cites))
	}
	if cites[0].ChunkID != "c1" {
		t.Fatalf("expected first-appearance chunk_id c1, got %s", cites[0].ChunkID)
	}
}

func TestResolve_OrdersByFirstAppearance(t *testing.T) {
	idx := NewIndex(nil)
	cites := Resolve([]string{"c4", "c1"}, NewChunkLookup(chunks()), idx, nil)
	if len(cites) != 2 || cites[0].DocID != "doc-c" || cites[1].DocID != "doc-a" {
		t.Fatalf("expected order [doc-c, doc-a], got %+v", cites)
	}
}

func TestVisibleReferences_FiltersHidden(t *testing.T) {
	all := []rtypes.Citation{
		{DocID: "doc-a", Visible: true},
		{DocID: "doc-b", Visible: false},
	}
	visible := VisibleReferences(all)
	if len(visible) != 1 || visible[0].DocID != "doc-a" {
		t.Fatalf("expected only doc-a visible, got %+v", visible)
	}
}

func TestResolve_UnknownChunkSkipped(t *testing.T) {
	cites := Resolve([]string{"missing"}, NewChunkLookup(chunks()), NewIndex(nil), nil)
	if len(cites) != 0 {
		t.Fatalf("expected no citations for unknown chunk_id, got %+v", cites)
	}
}

func TestExtractAuthorFromDocID_AuthorYearPrefix(t *testing.T) {
	if got := extractAuthorFromDocID("Kim-2020-Management of tracheo-oesophageal fistula.pdf"); got != "Kim" {
		t.Fatalf("expected Kim, got %s", got)
	}
}

func TestFormatAMA_MultipleAuthorsEtAl(t *testing.T) {
	c := rtypes.Citation{
		Authors: []string{"Smith John", "Lee Kim", "Park Ho", "Jones Bo"},
		Title:   "Endobronchial ultrasound staging",
		Venue:   "Chest",
		Year:    2021,
	}
	got := FormatAMA(c)
	if got == "" {
		t.Fatal("expected non-empty AMA citation")
	}
	if !containsSubstr(got, "et al") {
		t.Fatalf("expected et al for 4 authors, got %q", got)
	}
}

func containsSubstr(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

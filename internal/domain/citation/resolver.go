package citation

import (
	"regexp"
	"strings"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// ChunkLookup resolves a chunk_id to its Chunk, scoped to the grounding set
// that produced the draft answer.
type ChunkLookup func(chunkID string) (*rtypes.Chunk, bool)

// NewChunkLookup builds a ChunkLookup over a slice of grounding chunks.
func NewChunkLookup(chunks []*rtypes.Chunk) ChunkLookup {
	byID := make(map[string]*rtypes.Chunk, len(chunks))
	for _, c := range chunks {
		if c != nil {
			byID[c.ChunkID] = c
		}
	}
	return func(chunkID string) (*rtypes.Chunk, bool) {
		c, ok := byID[chunkID]
		return c, ok
	}
}

// Resolve maps citedChunkIDs (in first-appearance order, as they occur in
// the draft) to formatted Citation records. Each chunk is looked up in
// lookup, then its doc_id is looked up in idx; visibility is granted only
// to doc types in visibleDocTypes. Citations are deduplicated by doc_id,
// keeping the first chunk_id under which a doc_id appeared, and numbered by
// order of first appearance.
func Resolve(citedChunkIDs []string, lookup ChunkLookup, idx *Index, visibleDocTypes map[rtypes.DocType]bool) []rtypes.Citation {
	if visibleDocTypes == nil {
		visibleDocTypes = DefaultVisibleDocTypes()
	}
	seenDocID := make(map[string]bool)
	var out []rtypes.Citation
	appearanceOrder := make([]string, 0, len(citedChunkIDs))

	for _, chunkID := range citedChunkIDs {
		chunk, ok := lookup(chunkID)
		if !ok || chunk == nil {
			continue
		}
		if seenDocID[chunk.DocID] {
			continue
		}
		seenDocID[chunk.DocID] = true

		cite := rtypes.Citation{
			ChunkID: chunkID,
			DocID:   chunk.DocID,
			DocType: chunk.DocType,
			Year:    chunk.Year,
			Visible: visibleDocTypes[chunk.DocType],
		}
		if rec, ok := idx.Lookup(chunk.DocID); ok {
			cite.Authors = rec.Authors
			cite.Year = rec.Year
			cite.Title = rec.Title
			cite.Venue = rec.Venue
			// The index is authoritative on doc_type when present; the
			// chunk's own doc_type is only a fallback for uncatalogued docs.
			if rec.DocType != "" {
				cite.DocType = rec.DocType
				cite.Visible = visibleDocTypes[rec.DocType]
			}
		} else {
			cite.Authors = []string{extractAuthorFromDocID(chunk.DocID)}
			cite.Title = titleFromDocID(chunk.DocID)
		}

		out = append(out, cite)
		appearanceOrder = append(appearanceOrder, chunkID)
	}

	return rtypes.SortCitationsByFirstAppearance(out, appearanceOrder)
}

// VisibleReferences filters cites down to the visible reference list, per
// the "textbook chapters ground the answer but are hidden from references"
// policy — callers still pass the full cites slice through to
// grounding_chunks.
func VisibleReferences(cites []rtypes.Citation) []rtypes.Citation {
	out := make([]rtypes.Citation, 0, len(cites))
	for _, c := range cites {
		if c.Visible {
			out = append(out, c)
		}
	}
	return out
}

var authorYearPrefixRe = regexp.MustCompile(`^([A-Za-z]+)[-_](\d{4})[-_]`)

// extractAuthorFromDocID falls back to parsing "Author-Year-Title" style
// doc_ids when a doc_id has no catalogued citation record.
func extractAuthorFromDocID(docID string) string {
	docID = strings.TrimSuffix(docID, ".pdf")
	docID = strings.TrimSuffix(docID, ".json")
	if m := authorYearPrefixRe.FindStringSubmatch(docID); m != nil {
		return capitalize(m[1])
	}
	for _, delim := range []string{"-", "_", " "} {
		if idx := strings.Index(docID, delim); idx > 0 {
			first := docID[:idx]
			if isAlpha(first) {
				return capitalize(first)
			}
		}
	}
	return "Study"
}

func titleFromDocID(docID string) string {
	title := strings.TrimSuffix(docID, ".pdf")
	title = strings.TrimSuffix(title, ".json")
	title = strings.ReplaceAll(title, "_", " ")
	title = strings.ReplaceAll(title, "-", " ")
	return strings.TrimSpace(title)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

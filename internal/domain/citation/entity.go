// Package citation resolves the chunk IDs cited in a synthesized answer
// into formatted, deduplicated references, applying the reference-list
// visibility policy described for the citation resolver.
package citation

import rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"

// DefaultVisibleDocTypes is the doc_type set that appears in the visible
// reference list. Textbook chapters (book_chapter) are deliberately absent:
// they may still ground an answer, they are just hidden from references.
func DefaultVisibleDocTypes() map[rtypes.DocType]bool {
	return map[rtypes.DocType]bool{
		rtypes.DocTypeJournalArticle:   true,
		rtypes.DocTypeGuideline:        true,
		rtypes.DocTypeSystematicReview: true,
	}
}

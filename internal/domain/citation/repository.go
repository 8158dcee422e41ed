package citation

import (
	"encoding/json"
	"os"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// Index is the pre-built doc_id -> citation record lookup consulted by the
// resolver. It is loaded once at startup and never mutated at query time.
type Index struct {
	records map[string]rtypes.CitationRecord
}

// NewIndex wraps an already-loaded doc_id -> record map.
func NewIndex(records map[string]rtypes.CitationRecord) *Index {
	if records == nil {
		records = map[string]rtypes.CitationRecord{}
	}
	return &Index{records: records}
}

// LoadIndexFromFile reads a JSON object keyed by doc_id, matching the
// ingestion collaborator's citation index format.
func LoadIndexFromFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records map[string]rtypes.CitationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return NewIndex(records), nil
}

// Lookup returns the citation record for docID, or false if unknown.
func (idx *Index) Lookup(docID string) (rtypes.CitationRecord, bool) {
	if idx == nil {
		return rtypes.CitationRecord{}, false
	}
	rec, ok := idx.records[docID]
	return rec, ok
}

// Len reports the number of doc_ids in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.records)
}

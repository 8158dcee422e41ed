// Package termindex implements the term index (leaf component #2):
// static, read-only-after-build maps from CPT code and canonical alias to
// the set of chunk IDs mentioning them. The hybrid retriever's exact-match
// stage (step 3) is the sole consumer.
package termindex

import "regexp"

// Index is the immutable-after-Build term index. Built once from the
// ingested chunk corpus; safe for concurrent reads across requests.
type Index struct {
	cpt map[string]map[string]struct{}
	alias map[string]map[string]struct{}
}

// New returns an empty Index ready for incremental population via Add*.
func New() *Index {
	return &Index{
		cpt: make(map[string]map[string]struct{}),
		alias: make(map[string]map[string]struct{}),
	}
}

// AddCPT unions chunkID into the set indexed under the given CPT code.
func (idx *Index) AddCPT(code, chunkID string) {
	set, ok := idx.cpt[code]
	if !ok {
		set = make(map[string]struct{})
		idx.cpt[code] = set
	}
	set[chunkID] = struct{}{}
}

// AddAlias unions chunkID into the set indexed under the given canonical
// alias (case-insensitive; callers should lowercase before calling, as the
// query normalizer does).
func (idx *Index) AddAlias(alias, chunkID string) {
	set, ok := idx.alias[alias]
	if !ok {
		set = make(map[string]struct{})
		idx.alias[alias] = set
	}
	set[chunkID] = struct{}{}
}

// LookupCPT returns the chunk IDs indexed under code, or nil if none.
func (idx *Index) LookupCPT(code string) []string {
	return setToSlice(idx.cpt[code])
}

// LookupAlias returns the chunk IDs indexed under alias, or nil if none.
func (idx *Index) LookupAlias(alias string) []string {
	return setToSlice(idx.alias[alias])
}

// Aliases returns every alias string present in the index, for use by the
// query normalizer's substring scan.
func (idx *Index) Aliases() []string {
	out := make([]string, 0, len(idx.alias))
	for a := range idx.alias {
		out = append(out, a)
	}
	return out
}

func setToSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// cptTokenRe matches a standalone 5-digit token, the CPT code shape used
// throughout.
var cptTokenRe = regexp.MustCompile(`\b\d{5}\b`)

// FindCPTTokens returns every 5-digit token found in text, in order of
// first occurrence, with repeated tokens kept only once.
func FindCPTTokens(text string) []string {
	matches := cptTokenRe.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

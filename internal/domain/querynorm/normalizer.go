// Package querynorm implements the query normalizer : lowercasing
// and punctuation stripping that preserves CPT-shaped digit tokens,
// abbreviation/synonym expansion to canonical long forms, and fuzzy typo
// correction against a medical lexicon, grounded on the reference
// implementation's query_normalizer module.
package querynorm

import (
	"regexp"
	"sort"
	"strings"
)

// MentionCounter reports how many corpus chunks mention a candidate term.
// Fuzzy correction only applies when the corpus has at least MinMentions
// occurrences of the corrected candidate.
type MentionCounter interface {
	Count(term string) int
}

// ZeroMentionCounter always reports zero mentions, disabling fuzzy
// correction entirely. Useful for callers that have not yet built a
// corpus-mention index.
type ZeroMentionCounter struct{}

// Count always returns 0.
func (ZeroMentionCounter) Count(string) int { return 0 }

// Normalizer holds the normalization configuration: the abbreviation
// table, the fuzzy-correction vocabulary, and the minimum edit distance
// and corpus-mention thresholds.
type Normalizer struct {
	vocab map[string]struct{}
	minMentions int
	maxEditDist int
}

// New returns a Normalizer configured with defaults: edit
// distance <= 2, minimum 3 corpus mentions.
func New() *Normalizer {
	vocab := make(map[string]struct{}, len(medicalVocab))
	for _, v := range medicalVocab {
		vocab[v] = struct{}{}
	}
	return &Normalizer{vocab: vocab, minMentions: 3, maxEditDist: 2}
}

var nonWordRe = regexp.MustCompile(`[^a-z0-9\-\s()]`)
var whitespaceRe = regexp.MustCompile(`\s+`)

// stripPunctuation lowercases s and removes punctuation, preserving
// hyphens, digits (so 5-digit CPT tokens survive untouched), spaces, and
// parentheses (so a prior pass's abbreviation-expansion parens survive a
// repeated call, which idempotence requires).
func stripPunctuation(s string) string {
	lower := strings.ToLower(s)
	stripped := nonWordRe.ReplaceAllString(lower, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(stripped, " "))
}

// expandAbbreviations rewrites recognized synonym/abbreviation surface
// forms to "canonical (surface form)", longest-form-first within each
// entry to avoid partial replacements, and in table order for
// determinism. Already-expanded occurrences — a surface form directly
// wrapped in parentheses — are left alone so repeated calls are
// idempotent.
func expandAbbreviations(text string) string {
	for _, entry := range synonymTable {
		forms := make([]string, len(entry.forms))
		copy(forms, entry.forms)
		sort.Slice(forms, func(i, j int) bool { return len(forms[i]) > len(forms[j]) })
		for _, form := range forms {
			text = expandForm(text, form, entry.canonical)
		}
	}
	return text
}

func expandForm(text, form, canonical string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(form) + `\b`)
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && end < len(text) && text[start-1] == '(' && text[end] == ')' {
			continue
		}
		sb.WriteString(text[last:start])
		sb.WriteString(canonical)
		sb.WriteString(" (")
			sb.WriteString(text[start:end])
			sb.WriteString(")")
		last = end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// levenshtein returns the classic edit distance between a and b.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// nearestVocabTerm returns the vocabulary term closest to token by edit
// distance, and that distance, or ("", maxInt) if the vocabulary is empty.
func (n *Normalizer) nearestVocabTerm(token string) (string, int) {
	best := ""
	bestDist := -1
	for v := range n.vocab {
		d := levenshtein(token, v)
		if bestDist == -1 || d < bestDist || (d == bestDist && v < best) {
			best, bestDist = v, d
		}
	}
	if bestDist == -1 {
		return "", 1 << 30
	}
	return best, bestDist
}

// fuzzyCorrectTokens corrects out-of-vocabulary tokens to the nearest
// vocabulary term when the edit distance is within maxEditDist and the
// corpus has at least minMentions mentions of the candidate term.
func (n *Normalizer) fuzzyCorrectTokens(text string, counter MentionCounter) string {
	if counter == nil {
		counter = ZeroMentionCounter{}
	}
	words := strings.Fields(text)
	for i, w := range words {
		if _, ok := n.vocab[w]; ok {
			continue
		}
		candidate, dist := n.nearestVocabTerm(w)
		if candidate == "" || dist > n.maxEditDist {
			continue
		}
		if counter.Count(candidate) < n.minMentions {
			continue
		}
		words[i] = candidate
	}
	return strings.Join(words, " ")
}

// Normalize runs the full pipeline: punctuation/case cleanup, abbreviation
// expansion, then fuzzy correction. It is idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string, counter MentionCounter) string {
	cleaned := stripPunctuation(raw)
	expanded := expandAbbreviations(cleaned)
	corrected := n.fuzzyCorrectTokens(expanded, counter)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(corrected, " "))
}

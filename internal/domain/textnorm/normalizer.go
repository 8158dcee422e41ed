// Package textnorm implements the text normalizer (leaf component #1):
// ligature-artifact removal, double-expansion collapsing, and
// whitespace/unicode normalization, applied at every text boundary in the
// service (chunk ingestion echo, query normalization, operative-note
// extraction).
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ligatures maps common Latin ligature/typographic artifacts (frequently
// introduced by PDF-to-text extraction in the ingestion collaborator's
// pipeline) to their plain-ASCII expansions.
var ligatures = map[string]string{
	"ﬀ": "ff",
	"ﬁ": "fi",
	"ﬂ": "fl",
	"ﬃ": "ffi",
	"ﬄ": "ffl",
	"‘": "'",
	"’": "'",
	"“": "\"",
	"”": "\"",
	"–": "-",
	"—": "-",
	" ": " ",
	"−": "-",
}

var whitespaceRun = regexp.MustCompile(`[ \t\f\v]+`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

// parenGroupRe matches one parenthetical expansion. collapseDoubleExpansions
// uses it to find an already-expanded abbreviation accidentally expanded a
// second time, e.g. "EBUS (endobronchial ultrasound) (endobronchial
// ultrasound)", and collapses the repeated parenthetical.
var parenGroupRe = regexp.MustCompile(`\([^()]{3,80}\)`)

// collapseDoubleExpansions drops every parenthetical that repeats the one
// immediately before it, separated only by whitespace.
func collapseDoubleExpansions(s string) string {
	var sb strings.Builder
	last, prevEnd, prev := 0, -1, ""
	for _, m := range parenGroupRe.FindAllStringIndex(s, -1) {
		if g := s[m[0]:m[1]]; prevEnd < 0 || g != prev || strings.TrimSpace(s[prevEnd:m[0]]) != "" {
			prev, prevEnd = g, m[1]
			continue
		}
		sb.WriteString(s[last:prevEnd])
		last, prevEnd = m[1], m[1]
	}
	return sb.String() + s[last:]
}

// Normalize applies ligature removal, unicode NFC normalization, double
// expansion collapsing, and whitespace collapsing, in that order. It is
// idempotent: Normalize(Normalize(x)) == Normalize(x), required both
// directly here and transitively by the query normalizer's idempotence
// property.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	for from, to := range ligatures {
		s = strings.ReplaceAll(s, from, to)
	}
	s = collapseDoubleExpansions(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	s = collapseSpaceAroundNewlines(s)
	return strings.TrimSpace(s)
}

// collapseSpaceAroundNewlines trims trailing/leading spaces on each line
// without disturbing the characters that make up the line itself.
func collapseSpaceAroundNewlines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	return strings.Join(lines, "\n")
}

// IsIdempotent reports whether Normalize is a fixed point on s; used by
// property-based tests rather than in production code.
func IsIdempotent(s string) bool {
	once := Normalize(s)
	twice := Normalize(once)
	return once == twice
}

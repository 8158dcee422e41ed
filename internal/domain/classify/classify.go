// Package classify implements the orchestrator's classify state : a
// closed set of regex/keyword families mapped to exactly one classification
// label, with precedence emergency > safety > coding > procedure > clinical
// on ambiguity. Grounded on the reference implementation's
// `classify_query` (original_source/src/orchestrator/flow.py).
package classify

import (
	"regexp"

	"github.com/russellmiller49/ip-assist-lite/internal/domain/safety"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/termindex"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

var codingKeywordRe = regexp.MustCompile(`\b(cpt|rvu|billing|coding|reimbursement|hcpcs|icd-?10)\b`)

var contraindicationKeywordRe = regexp.MustCompile(`\b(contraindications?|contraindicated|safety|complication|risk of|adverse event)\b`)

var proceduralVerbRe = regexp.MustCompile(`\b(perform|technique|insert|place|placement|remove|removal|biopsy|sample|dilat|ablat|resect)\w*\b`)

// Classify assigns a single Classification label to a normalized query,
// applying emergency > safety > coding > procedure > clinical precedence.
func Classify(normalizedQuery string) rtypes.Classification {
	if isEmergency, _ := safety.DetectEmergency(normalizedQuery); isEmergency {
		return rtypes.ClassEmergency
	}
	if contraindicationKeywordRe.MatchString(normalizedQuery) {
		return rtypes.ClassSafety
	}
	if codingKeywordRe.MatchString(normalizedQuery) || len(termindex.FindCPTTokens(normalizedQuery)) > 0 {
		return rtypes.ClassCoding
	}
	if proceduralVerbRe.MatchString(normalizedQuery) {
		return rtypes.ClassProcedure
	}
	return rtypes.ClassClinical
}

// SetFilters builds set_filters output for a given classification.
func SetFilters(class rtypes.Classification) rtypes.Filters {
	switch class {
	case rtypes.ClassEmergency:
		return rtypes.Filters{AuthorityTiers: []rtypes.AuthorityTier{rtypes.AuthorityA1, rtypes.AuthorityA2}}
	case rtypes.ClassCoding:
		return rtypes.Filters{
			SectionKinds: []rtypes.SectionKind{rtypes.SectionTableRow, rtypes.SectionCoding},
			Domains: []rtypes.Domain{rtypes.DomainCodingBilling},
		}
	case rtypes.ClassSafety:
		trueVal := true
		return rtypes.Filters{HasContraindication: &trueVal}
	default:
		return rtypes.Filters{}
	}
}

// TopKFor returns the classification-specific top_k cap, notably emergency's
// top_k <= 5 requirement; other classes defer to the caller's requested k.
func TopKFor(class rtypes.Classification, requested int) int {
	if class == rtypes.ClassEmergency && requested > 5 {
		return 5
	}
	return requested
}

// UseRerankerFor reports whether the reranker stage should run for class,
// honoring the emergency-class reranker-off rule and the caller's
// preference otherwise.
func UseRerankerFor(class rtypes.Classification, requested bool) bool {
	if class == rtypes.ClassEmergency {
		return false
	}
	return requested
}

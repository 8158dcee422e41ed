package retriever

import (
	"github.com/russellmiller49/ip-assist-lite/internal/domain/precedence"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// classificationSectionKinds maps a query classification to the section
// kinds that count as a "matching section" for section score. A
// chunk in one of these sections scores 1.0; every other chunk scores 0.5.
var classificationSectionKinds = map[rtypes.Classification]map[rtypes.SectionKind]bool{
	rtypes.ClassEmergency: {rtypes.SectionProcedure: true, rtypes.SectionComplications: true},
	rtypes.ClassSafety: {rtypes.SectionContraindications: true},
	rtypes.ClassCoding: {rtypes.SectionCoding: true, rtypes.SectionTableRow: true},
	rtypes.ClassProcedure: {rtypes.SectionProcedure: true},
	rtypes.ClassClinical: {rtypes.SectionGeneral: true, rtypes.SectionAblation: true, rtypes.SectionBLVR: true},
}

func sectionScore(class rtypes.Classification, kind rtypes.SectionKind) float64 {
	if set, ok := classificationSectionKinds[class]; ok && set[kind] {
		return 1.0
	}
	return 0.5
}

// Score computes final_score step 5:
//
//	final_score = 0.45·precedence + 0.35·semantic + 0.10·section + 0.10·entity + bonuses
//
// semantic = max(dense, sparse); entity = 1.0 iff the hit was surfaced by
// the exact-match source. Bonuses: +0.05 exact CPT match (exact_bonus);
// +0.05 if classification=coding and chunk.domain=coding_billing.
func Score(w precedence.Weights, hit *rtypes.RetrievedHit, class rtypes.Classification, currentYear int) float64 {
	if hit.Chunk == nil {
		return 0
	}
	semantic := maxFloat(hit.RawScoreBySource[rtypes.SourceDense], hit.RawScoreBySource[rtypes.SourceSparse])
	entity := 0.0
	if hit.HasSource(rtypes.SourceExact) {
		entity = 1.0
	}
	prec := precedence.Score(w, hit.Chunk, currentYear)
	section := sectionScore(class, hit.Chunk.SectionKind)

	score := 0.45*prec + 0.35*semantic + 0.10*section + 0.10*entity
	if hit.ExactBonus {
		score += 0.05
	}
	if class == rtypes.ClassCoding && hit.Chunk.Domain == rtypes.DomainCodingBilling {
		score += 0.05
	}

	hit.PrecedenceScore = prec
	hit.SemanticScore = semantic
	hit.SectionScore = section
	hit.EntityScore = entity
	hit.FinalScore = score
	return score
}

// ScoreAll scores every hit in place and returns it for chaining.
func ScoreAll(w precedence.Weights, hits []*rtypes.RetrievedHit, class rtypes.Classification, currentYear int) []*rtypes.RetrievedHit {
	for _, h := range hits {
		Score(w, h, class, currentYear)
	}
	return hits
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

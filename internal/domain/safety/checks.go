package safety

import (
	"regexp"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// Warning is a single safety-check finding attached to a QueryContext.
type Warning struct {
	Code string
	Message string
}

// pediatricKeywordRe matches mentions of pediatric/infant patients, the
// population singles out for an automatic pre-synthesis warning since
// dosing and device sizing differ materially from adults.
var pediatricKeywordRe = regexp.MustCompile(`(?i)\b(pediatric|paediatric|child|children|infant|neonate|neonatal)\b`)

// absoluteDoseRe matches a bare numeric dose (amount + unit), independent of
// the emergency patterns, to flag queries that embed a specific dosing
// number needing grounding-chunk corroboration at safety_post.
var absoluteDoseRe = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:mg|mcg|mL|ml|units?|g)\b(?:\s*/\s*kg)?\b`)

// PreSynthesisCheck inspects the normalized query alone, independent of
// retrieval, safety_pre. It returns warnings and whether an
// emergency fast-path protocol should short-circuit synthesis.
func PreSynthesisCheck(normalizedQuery string) (warnings []Warning, isEmergency bool, subtype EmergencySubtype) {
	isEmergency, subtype = DetectEmergency(normalizedQuery)
	if isEmergency {
		warnings = append(warnings, Warning{
				Code: "emergency_pattern_matched",
				Message: "Query matches an emergency presentation pattern; routing to fast-path protocol.",
		})
	}
	if pediatricKeywordRe.MatchString(normalizedQuery) {
		warnings = append(warnings, Warning{
				Code: "pediatric_population",
				Message: "Query references a pediatric or infant patient; adult dosing and device sizing may not apply.",
		})
	}
	if absoluteDoseRe.MatchString(normalizedQuery) {
		warnings = append(warnings, Warning{
				Code: "absolute_dose_requested",
				Message: "Query requests a specific dosing number; any dose in the synthesized answer requires corroboration from multiple sources.",
		})
	}
	return warnings, isEmergency, subtype
}

// doseClaimRe extracts a numeric dose claim (value + unit) from free text,
// used by PostSynthesisCheck to locate claims in both the draft answer and
// the grounding chunks so they can be cross-checked for corroboration.
var doseClaimRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|mcg|mL|ml|units?|g)\b`)

type doseClaim struct {
	value float64
	unit string
}

func extractDoseClaims(text string) []doseClaim {
	matches := doseClaimRe.FindAllStringSubmatch(text, -1)
	out := make([]doseClaim, 0, len(matches))
	for _, m := range matches {
		v := parseFloat(m[1])
		out = append(out, doseClaim{value: v, unit: normalizeUnit(m[2])})
	}
	return out
}

func normalizeUnit(u string) string {
	switch u {
	case "mL", "ml":
		return "ml"
	case "unit", "units":
		return "units"
	default:
		return u
	}
}

func parseFloat(s string) float64 {
	var v float64
	var frac float64 = 1
	seenDot := false
	for _, c := range s {
		if c == '.' {
			seenDot = true
			continue
		}
		d := float64(c - '0')
		if d < 0 || d > 9 {
			continue
		}
		if !seenDot {
			v = v*10 + d
		} else {
			frac *= 10
			v += d / frac
		}
	}
	return v
}

// withinVariance reports whether a and b are within pct percent of the
// larger of the two, "±20% numeric variance" corroboration rule.
func withinVariance(a, b, pct float64) bool {
	if a == 0 && b == 0 {
		return true
	}
	max := a
	if b > max {
		max = b
	}
	if max == 0 {
		return false
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff/max*100 <= pct
}

// PostSynthesisCheckConfig carries the tunable thresholds from
// safety.dose_confirm_min_sources and safety.dose_variance_pct.
type PostSynthesisCheckConfig struct {
	DoseConfirmMinSources int
	DoseVariancePct float64
}

// DefaultPostSynthesisCheckConfig returns resolved defaults.
func DefaultPostSynthesisCheckConfig() PostSynthesisCheckConfig {
	return PostSynthesisCheckConfig{DoseConfirmMinSources: 2, DoseVariancePct: 20}
}

// PostSynthesisCheck inspects the synthesized draft for unsupported dose
// claims and, for safety-classed queries, missing contraindication
// coverage, safety_post. reviewRequired is true when any warning
// is emitted.
func PostSynthesisCheck(cfg PostSynthesisCheckConfig,
	draftText string,
	groundingChunks []*rtypes.Chunk,
	classification rtypes.Classification,) (warnings []Warning, reviewRequired bool) {
	claims := extractDoseClaims(draftText)
	for _, claim := range claims {
		corroborating := 0
		for _, chunk := range groundingChunks {
			for _, cc := range extractDoseClaims(chunk.Text) {
				if cc.unit == claim.unit && withinVariance(cc.value, claim.value, cfg.DoseVariancePct) {
					corroborating++
					break
				}
			}
		}
		if corroborating < cfg.DoseConfirmMinSources {
			warnings = append(warnings, Warning{
					Code: "unsupported_dose_claim",
					Message: "A dose figure in the answer is not corroborated by at least two grounding sources within the allowed variance.",
			})
		}
	}

	if classification == rtypes.ClassSafety {
		hasContraindicationTag := false
		for _, chunk := range groundingChunks {
			if chunk.HasTag(rtypes.TagHasContraindication) {
				hasContraindicationTag = true
				break
			}
		}
		if !hasContraindicationTag {
			warnings = append(warnings, Warning{
					Code: "missing_contraindication_coverage",
					Message: "Query was classified safety but no grounding chunk carries contraindication content.",
			})
		}
	}

	return warnings, len(warnings) > 0
}

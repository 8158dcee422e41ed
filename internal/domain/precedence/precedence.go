// Package precedence implements the precedence model : authority
// tiers, evidence levels, and domain-aware recency half-lives combined
// into a single score, with the "A1 floor" and the standard-of-care guard.
package precedence

import (
	"math"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// Weights holds the tunable parameters of the precedence model. All values
// here are configuration, not invariants (Open Question #2).
type Weights struct {
	AuthorityWeight map[rtypes.AuthorityTier]float64
	EvidenceWeight map[rtypes.EvidenceLevel]float64
	HalfLifeYears map[rtypes.Domain]float64
	A1Floor float64

	RecencyCoeff float64
	EvidenceCoeff float64
	AuthorityCoeff float64
}

// DefaultWeights returns weights as published in the core spec.
func DefaultWeights() Weights {
	return Weights{
		AuthorityWeight: map[rtypes.AuthorityTier]float64{
			rtypes.AuthorityA1: 1.0,
			rtypes.AuthorityA2: 0.85,
			rtypes.AuthorityA3: 0.7,
			rtypes.AuthorityA4: 0.6,
		},
		EvidenceWeight: map[rtypes.EvidenceLevel]float64{
			rtypes.EvidenceH1: 1.0,
			rtypes.EvidenceH2: 0.9,
			rtypes.EvidenceH3: 0.75,
			rtypes.EvidenceH4: 0.6,
		},
		HalfLifeYears: map[rtypes.Domain]float64{
			rtypes.DomainCodingBilling: 3,
			rtypes.DomainTechnologyNavigation: 4,
			rtypes.DomainAblation: 5,
			rtypes.DomainClinical: 6,
			rtypes.DomainLungVolumeReduction: 5,
		},
		A1Floor: 0.7,
		RecencyCoeff: 0.5,
		EvidenceCoeff: 0.3,
		AuthorityCoeff: 0.2,
	}
}

// HalfLife returns the configured half-life for domain, defaulting to the
// clinical half-life if domain is unrecognized.
func (w Weights) HalfLife(domain rtypes.Domain) float64 {
	if hl, ok := w.HalfLifeYears[domain]; ok {
		return hl
	}
	return w.HalfLifeYears[rtypes.DomainClinical]
}

// Recency computes 0.5^(age/half_life), clamped to the A1 floor when the
// chunk is authority tier A1.
func Recency(w Weights, tier rtypes.AuthorityTier, domain rtypes.Domain, year, currentYear int) float64 {
	age := float64(currentYear - year)
	if age < 0 {
		age = 0
	}
	hl := w.HalfLife(domain)
	if hl <= 0 {
		hl = 1
	}
	recency := math.Pow(0.5, age/hl)
	if tier == rtypes.AuthorityA1 {
		recency = math.Max(recency, w.A1Floor)
	}
	return recency
}

// Score computes precedence(c) = 0.5·recency + 0.3·H_weight + 0.2·A_weight,
// clamped to [0,1] per invariant (the A1 floor and the weight
// normalization already keep this in-range for valid inputs; the clamp is
// defensive against misconfigured weights).
func Score(w Weights, chunk *rtypes.Chunk, currentYear int) float64 {
	recency := Recency(w, chunk.AuthorityTier, chunk.Domain, chunk.Year, currentYear)
	hWeight := w.EvidenceWeight[chunk.EvidenceLevel]
	aWeight := w.AuthorityWeight[chunk.AuthorityTier]
	score := w.RecencyCoeff*recency + w.EvidenceCoeff*hWeight + w.AuthorityCoeff*aWeight
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ApplyStaleCodingTag tags chunk with stale_coding when it is on the
// coding_billing domain and older than half_life+1 years,
// "Emergencies (coding_billing also)".
func ApplyStaleCodingTag(w Weights, chunk *rtypes.Chunk, currentYear int) {
	if chunk.Domain != rtypes.DomainCodingBilling {
		return
	}
	age := currentYear - chunk.Year
	if age < 0 {
		age = 0
	}
	hl := w.HalfLife(chunk.Domain)
	if float64(age) > hl+1 {
		chunk.AddTag(rtypes.TagStaleCoding)
	}
}

// StandardOfCareGuardAllowsSwap reports whether an A4 candidate is allowed
// to outrank an A1 candidate given the standard-of-care guard: the A4 must
// be evidence level H1 or H2 and at least 3 years newer than the A1 chunk.
// Callers apply this only when comparing two top candidates on the same
// topic cluster (same primary aliases).
func StandardOfCareGuardAllowsSwap(a4 *rtypes.Chunk, a1 *rtypes.Chunk) bool {
	if a4 == nil || a1 == nil {
		return true
	}
	if a4.AuthorityTier != rtypes.AuthorityA4 || a1.AuthorityTier != rtypes.AuthorityA1 {
		return true
	}
	strongEvidence := a4.EvidenceLevel == rtypes.EvidenceH1 || a4.EvidenceLevel == rtypes.EvidenceH2
	newerByThreeYears := a4.Year-a1.Year >= 3
	return strongEvidence && newerByThreeYears
}

// EnforceStandardOfCareGuard reorders a (higher, lower)-scored pair of
// top candidates on the same topic cluster: if higher is A4 and lower is
// A1 and the guard condition does not hold, the pair is swapped.
func EnforceStandardOfCareGuard(higher, lower *rtypes.RetrievedHit) (*rtypes.RetrievedHit, *rtypes.RetrievedHit) {
	if higher == nil || lower == nil || higher.Chunk == nil || lower.Chunk == nil {
		return higher, lower
	}
	if higher.Chunk.AuthorityTier == rtypes.AuthorityA4 && lower.Chunk.AuthorityTier == rtypes.AuthorityA1 {
		if !StandardOfCareGuardAllowsSwap(higher.Chunk, lower.Chunk) {
			return lower, higher
		}
	}
	return higher, lower
}

// SameTopicCluster reports whether two chunks share at least one primary
// alias, the topic-cluster membership test used by the standard-of-care
// guard.
func SameTopicCluster(a, b *rtypes.Chunk) bool {
	if a == nil || b == nil {
		return false
	}
	for _, alias := range a.Aliases {
		if b.HasAlias(alias) {
			return true
		}
	}
	return false
}

package retriever

import rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"

// ApplyFilters returns the subset of hits whose chunk satisfies every
// populated dimension of f (step 6). An unset dimension (zero value,
// nil slice, nil pointer) imposes no constraint.
func ApplyFilters(hits []*rtypes.RetrievedHit, f rtypes.Filters) []*rtypes.RetrievedHit {
	out := make([]*rtypes.RetrievedHit, 0, len(hits))
	for _, h := range hits {
		if h.Chunk == nil || !matches(h.Chunk, f) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func matches(c *rtypes.Chunk, f rtypes.Filters) bool {
	if len(f.AuthorityTiers) > 0 && !containsTier(f.AuthorityTiers, c.AuthorityTier) {
		return false
	}
	if f.YearMin != 0 && c.Year < f.YearMin {
		return false
	}
	if f.YearMax != 0 && c.Year > f.YearMax {
		return false
	}
	if len(f.Domains) > 0 && !containsDomain(f.Domains, c.Domain) {
		return false
	}
	if len(f.SectionKinds) > 0 && !containsSection(f.SectionKinds, c.SectionKind) {
		return false
	}
	if f.HasTable != nil && c.HasTag(rtypes.TagHasTable) != *f.HasTable {
		return false
	}
	if f.HasContraindication != nil && c.HasTag(rtypes.TagHasContraindication) != *f.HasContraindication {
		return false
	}
	return true
}

func containsTier(set []rtypes.AuthorityTier, t rtypes.AuthorityTier) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

func containsDomain(set []rtypes.Domain, d rtypes.Domain) bool {
	for _, s := range set {
		if s == d {
			return true
		}
	}
	return false
}

func containsSection(set []rtypes.SectionKind, k rtypes.SectionKind) bool {
	for _, s := range set {
		if s == k {
			return true
		}
	}
	return false
}

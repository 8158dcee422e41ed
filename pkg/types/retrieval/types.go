// Package retrieval holds the closed-schema value types shared by the
// hybrid retriever, precedence model, safety layer, and orchestrator:
// Chunk, TermIndex, RetrievedHit, QueryContext, and Citation. These are
// plain data types — behavior lives in the domain packages that operate on
// them, per the teacher's separation between pkg/types (wire/storage
// shapes) and internal/domain (business rules).
package retrieval

import "sort"

// DocType enumerates the document classes a Chunk can originate from.
type DocType string

const (
	DocTypeGuideline DocType = "guideline"
	DocTypeSystematicReview DocType = "systematic_review"
	DocTypeRCT DocType = "rct"
	DocTypeCohort DocType = "cohort"
	DocTypeNarrativeReview DocType = "narrative_review"
	DocTypeBookChapter DocType = "book_chapter"
	DocTypeCase DocType = "case"
	DocTypeJournalArticle DocType = "journal_article"
)

// SectionKind enumerates the section taxonomy used for query-class
// matching in scoring function.
type SectionKind string

const (
	SectionProcedure SectionKind = "procedure"
	SectionComplications SectionKind = "complications"
	SectionContraindications SectionKind = "contraindications"
	SectionCoding SectionKind = "coding"
	SectionAblation SectionKind = "ablation"
	SectionBLVR SectionKind = "blvr"
	SectionGeneral SectionKind = "general"
	SectionTableRow SectionKind = "table_row"
)

// AuthorityTier enumerates the four authority tiers assigned at ingestion.
type AuthorityTier string

const (
	AuthorityA1 AuthorityTier = "A1"
	AuthorityA2 AuthorityTier = "A2"
	AuthorityA3 AuthorityTier = "A3"
	AuthorityA4 AuthorityTier = "A4"
)

// IsValid reports whether t is one of the four closed tiers.
func (t AuthorityTier) IsValid() bool {
	switch t {
	case AuthorityA1, AuthorityA2, AuthorityA3, AuthorityA4:
		return true
	default:
		return false
	}
}

// EvidenceLevel enumerates the four evidence levels assigned at ingestion.
type EvidenceLevel string

const (
	EvidenceH1 EvidenceLevel = "H1"
	EvidenceH2 EvidenceLevel = "H2"
	EvidenceH3 EvidenceLevel = "H3"
	EvidenceH4 EvidenceLevel = "H4"
)

// IsValid reports whether l is one of the four closed levels.
func (l EvidenceLevel) IsValid() bool {
	switch l {
	case EvidenceH1, EvidenceH2, EvidenceH3, EvidenceH4:
		return true
	default:
		return false
	}
}

// Domain enumerates the five clinical-content domains used for
// domain-aware recency half-lives.
type Domain string

const (
	DomainClinical Domain = "clinical"
	DomainCodingBilling Domain = "coding_billing"
	DomainAblation Domain = "ablation"
	DomainLungVolumeReduction Domain = "lung_volume_reduction"
	DomainTechnologyNavigation Domain = "technology_navigation"
)

// Tag enumerates the multiset of boolean content tags a Chunk may carry.
type Tag string

const (
	TagHasTable Tag = "has_table"
	TagHasContraindication Tag = "has_contraindication"
	TagHasDose Tag = "has_dose"
	TagHasEmergencyPattern Tag = "has_emergency_pattern"
	TagStaleCoding Tag = "stale_coding"
)

// Chunk is the atomic unit of retrieval. Attributes mirror of the
// specification verbatim; downstream code must not rely on fields beyond
// this closed schema.
type Chunk struct {
	ChunkID string `json:"chunk_id"`
	Text string `json:"text"`
	DocID string `json:"doc_id"`
	DocType DocType `json:"doc_type"`
	SectionTitle string `json:"section_title"`
	SectionKind SectionKind `json:"section_kind"`
	Year int `json:"year"`
	AuthorityTier AuthorityTier `json:"authority_tier"`
	EvidenceLevel EvidenceLevel `json:"evidence_level"`
	Domain Domain `json:"domain"`
	CPTCodes []string `json:"cpt_codes"`
	Aliases []string `json:"aliases"`
	Tags []Tag `json:"tags"`
}

// HasTag reports whether the chunk carries the given tag.
func (c *Chunk) HasTag(tag Tag) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends tag if not already present.
func (c *Chunk) AddTag(tag Tag) {
	if !c.HasTag(tag) {
		c.Tags = append(c.Tags, tag)
	}
}

// HasCPT reports whether code is in the chunk's cpt_codes set.
func (c *Chunk) HasCPT(code string) bool {
	for _, cpt := range c.CPTCodes {
		if cpt == code {
			return true
		}
	}
	return false
}

// HasAlias reports whether alias (case-sensitive, already-canonicalized) is
// in the chunk's aliases set.
func (c *Chunk) HasAlias(alias string) bool {
	for _, a := range c.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// SourceFlag identifies which retriever(s) surfaced a given hit.
type SourceFlag string

const (
	SourceDense SourceFlag = "dense"
	SourceSparse SourceFlag = "sparse"
	SourceExact SourceFlag = "exact"
)

// RetrievedHit is a single scored candidate returned by the hybrid
// retriever, as defined.
type RetrievedHit struct {
	ChunkID string
	RawScoreBySource map[SourceFlag]float64
	FinalScore float64
	PrecedenceScore float64
	SemanticScore float64
	SectionScore float64
	EntityScore float64
	RerankerScore float64
	SourceFlags []SourceFlag
	ExactBonus bool
	Chunk *Chunk
}

// HasSource reports whether the hit was surfaced by the given retriever.
func (h *RetrievedHit) HasSource(flag SourceFlag) bool {
	for _, f := range h.SourceFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddSource unions flag into the hit's source_flags set.
func (h *RetrievedHit) AddSource(flag SourceFlag) {
	if !h.HasSource(flag) {
		h.SourceFlags = append(h.SourceFlags, flag)
	}
}

// Classification enumerates the orchestrator's closed set of query labels,
// in decreasing precedence order on ambiguity.
type Classification string

const (
	ClassEmergency Classification = "emergency"
	ClassSafety Classification = "safety"
	ClassCoding Classification = "coding"
	ClassProcedure Classification = "procedure"
	ClassClinical Classification = "clinical"
)

// classificationPrecedence maps each classification to its priority; lower
// is higher precedence, matching "emergency > safety > coding > procedure
// > clinical".
var classificationPrecedence = map[Classification]int{
	ClassEmergency: 0,
	ClassSafety: 1,
	ClassCoding: 2,
	ClassProcedure: 3,
	ClassClinical: 4,
}

// HighestPrecedence returns the classification with the lowest precedence
// index among labels, defaulting to ClassClinical for an empty input.
func HighestPrecedence(labels []Classification) Classification {
	best := ClassClinical
	bestRank := classificationPrecedence[ClassClinical]
	for _, l := range labels {
		if rank, ok := classificationPrecedence[l]; ok && rank < bestRank {
			best = l
			bestRank = rank
		}
	}
	return best
}

// Filters is the post-filter set applied by the hybrid retriever, any
// subset of which may be populated.
type Filters struct {
	AuthorityTiers []AuthorityTier
	YearMin int
	YearMax int
	Domains []Domain
	SectionKinds []SectionKind
	HasTable *bool
	HasContraindication *bool
}

// IsTighterOrEqual reports whether f is at least as restrictive as other on
// every dimension other sets — used by the filter-monotonicity property
// test.
func (f Filters) IsTighterOrEqual(other Filters) bool {
	if len(other.AuthorityTiers) > 0 && !isSubsetTier(f.AuthorityTiers, other.AuthorityTiers) {
		return false
	}
	if other.YearMin != 0 && f.YearMin < other.YearMin {
		return false
	}
	if other.YearMax != 0 && (f.YearMax == 0 || f.YearMax > other.YearMax) {
		return false
	}
	if len(other.Domains) > 0 && !isSubsetDomain(f.Domains, other.Domains) {
		return false
	}
	if len(other.SectionKinds) > 0 && !isSubsetSection(f.SectionKinds, other.SectionKinds) {
		return false
	}
	if other.HasTable != nil && (f.HasTable == nil || *f.HasTable != *other.HasTable) {
		return false
	}
	if other.HasContraindication != nil && (f.HasContraindication == nil || *f.HasContraindication != *other.HasContraindication) {
		return false
	}
	return true
}

func isSubsetTier(a, b []AuthorityTier) bool {
	set := make(map[AuthorityTier]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	if len(a) == 0 {
		return true
	}
	for _, t := range a {
		if !set[t] {
			return false
		}
	}
	return true
}

func isSubsetDomain(a, b []Domain) bool {
	set := make(map[Domain]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	if len(a) == 0 {
		return true
	}
	for _, t := range a {
		if !set[t] {
			return false
		}
	}
	return true
}

func isSubsetSection(a, b []SectionKind) bool {
	set := make(map[SectionKind]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	if len(a) == 0 {
		return true
	}
	for _, t := range a {
		if !set[t] {
			return false
		}
	}
	return true
}

// ConversationTurn is a single persisted turn in a multi-turn session.
type ConversationTurn struct {
	SessionID string
	TurnIndex int
	Role string // "user" | "assistant"
	Text string
	Classification Classification
	CreatedAt int64 // unix seconds, stamped by the caller
}

// QueryContext is the per-request state threaded through the orchestrator
// It owns no resources and is safe to copy by value except for
// ConversationHistory.
type QueryContext struct {
	RawText string
	NormalizedText string
	Classification Classification
	Filters Filters
	TopK int
	UseReranker bool
	SessionID string
	ConversationHistory []ConversationTurn
	IsEmergencyFastPath bool
	Warnings []string
	Degraded bool
}

// AddWarning appends a warning message, deduplicating exact repeats.
func (q *QueryContext) AddWarning(msg string) {
	for _, w := range q.Warnings {
		if w == msg {
			return
		}
	}
	q.Warnings = append(q.Warnings, msg)
}

// Citation is a resolved, formatted reference to a doc_id.
type Citation struct {
	ChunkID string
	DocID string
	Authors []string
	Year int
	Title string
	Venue string
	DocType DocType
	Visible bool
}

// CitationRecord is the raw doc_id -> citation metadata record supplied by
// the ingestion collaborator's citation index.
type CitationRecord struct {
	Authors []string `json:"authors"`
	Year int `json:"year"`
	Title string `json:"title"`
	Venue string `json:"venue"`
	DocType DocType `json:"doc_type"`
}

// SortCitationsByFirstAppearance stably reorders citations by the order in
// which their chunk_id first appears in appearanceOrder,
// "numbers references in order of first appearance".
func SortCitationsByFirstAppearance(cites []Citation, appearanceOrder []string) []Citation {
	rank := make(map[string]int, len(appearanceOrder))
	for i, id := range appearanceOrder {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}
	out := make([]Citation, len(cites))
	copy(out, cites)
	sort.SliceStable(out, func(i, j int) bool {
			ri, oki := rank[out[i].ChunkID]
			rj, okj := rank[out[j].ChunkID]
			if !oki {
				ri = len(appearanceOrder)
			}
			if !okj {
				rj = len(appearanceOrder)
			}
			return ri < rj
	})
	return out
}

// AnswerResponse is the orchestrator's terminal state : the
// synthesized answer plus everything a caller needs to render it and audit
// how it was produced.
type AnswerResponse struct {
	AnswerHTML string
	Citations []Citation
	IsEmergency bool
	Confidence float64
	Classification Classification
	SafetyWarnings []string
	GroundingChunks []*Chunk
	KBVersion string
	ReviewRequired bool
}

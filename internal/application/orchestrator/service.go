package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/russellmiller49/ip-assist-lite/internal/application/retrieval"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/citation"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/classify"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/querynorm"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/safety"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// Service runs state machine: classify, set_filters, retrieve,
// rerank, safety_pre, synthesize, safety_post.
type Service struct {
	normalizer *querynorm.Normalizer
	mentions querynorm.MentionCounter
	retriever *retrieval.Service
	llm LLMClient
	citationIndex *citation.Index
	visibleTypes map[rtypes.DocType]bool
	postCfg safety.PostSynthesisCheckConfig
	codingKB KBVersionProvider
	logger logging.Logger
	maxOutputTok int
	historyWindow int
	cache ResultCache
	cacheTTL time.Duration
	safetyEvents SafetyEventPublisher
}

// SetSafetyEventPublisher wires the optional Kafka-backed SafetyEvent
// publisher (topic ip-assist.safety.events). Skipped entirely when nil.
func (s *Service) SetSafetyEventPublisher(publisher SafetyEventPublisher) {
	s.safetyEvents = publisher
}

// SetResultCache wires the optional result cache. Caching is skipped
// entirely when cache is nil, and is never consulted for a query that
// pre-synthesis safety screening flags as an emergency, so an updated
// emergency protocol can never be masked by a stale cache entry.
func (s *Service) SetResultCache(cache ResultCache, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 600 * time.Second
	}
	s.cache = cache
	s.cacheTTL = ttl
}

// NewService wires the orchestrator's dependencies. codingKB may be nil if
// the coding KB has not been loaded; llm may be nil, in which case every
// non-emergency query gets an evidence-only response.
func NewService(normalizer *querynorm.Normalizer,
	mentions querynorm.MentionCounter,
	retriever *retrieval.Service,
	llm LLMClient,
	citationIndex *citation.Index,
	postCfg safety.PostSynthesisCheckConfig,
	codingKB KBVersionProvider,
	logger logging.Logger,) *Service {
	if mentions == nil {
		mentions = querynorm.ZeroMentionCounter{}
	}
	return &Service{
		normalizer: normalizer,
		mentions: mentions,
		retriever: retriever,
		llm: llm,
		citationIndex: citationIndex,
		visibleTypes: citation.DefaultVisibleDocTypes(),
		postCfg: postCfg,
		codingKB: codingKB,
		logger: logger,
		maxOutputTok: 1024,
		historyWindow: 6,
	}
}

// Ask runs the full pipeline for one turn of a (possibly multi-turn)
// session. history holds prior turns in chronological order; only rawQuery
// is normalized and used for retrieval, multi-turn rule.
func (s *Service) Ask(ctx context.Context, rawQuery string, requestedTopK int, requestedUseReranker bool, history []rtypes.ConversationTurn) (*rtypes.AnswerResponse, error) {
	normalized := s.normalizer.Normalize(rawQuery, s.mentions)

	if s.cache == nil || len(history) > 0 {
		return s.answer(ctx, normalized, requestedTopK, requestedUseReranker, history)
	}

	filters := classify.SetFilters(classify.Classify(normalized))
	if _, isEmergency, _ := safety.PreSynthesisCheck(normalized); isEmergency {
		return s.answer(ctx, normalized, requestedTopK, requestedUseReranker, history)
	}

	key := resultCacheKey(normalized, filters, requestedUseReranker)
	return s.cache.GetOrSet(ctx, key, s.cacheTTL, func(ctx context.Context) (*rtypes.AnswerResponse, error) {
			return s.answer(ctx, normalized, requestedTopK, requestedUseReranker, history)
	})
}

// resultCacheKey composes result cache key, (normalized_query,
// filters, use_reranker), deterministically.
func resultCacheKey(normalized string, filters rtypes.Filters, useReranker bool) string {
	body, _ := json.Marshal(struct {
			Query string `json:"query"`
			Filters rtypes.Filters `json:"filters"`
			UseReranker bool `json:"use_reranker"`
		}{Query: normalized, Filters: filters, UseReranker: useReranker})
	sum := sha256.Sum256(body)
	return "answer:" + hex.EncodeToString(sum[:])
}

// answer runs state machine for one turn, uncached. history holds
// prior turns in chronological order; only the current normalized query is
// used for retrieval, multi-turn rule.
func (s *Service) answer(ctx context.Context, normalized string, requestedTopK int, requestedUseReranker bool, history []rtypes.ConversationTurn) (*rtypes.AnswerResponse, error) {
	requestID := uuid.New().String()
	class := classify.Classify(normalized)
	filters := classify.SetFilters(class)
	topK := classify.TopKFor(class, requestedTopK)
	useReranker := classify.UseRerankerFor(class, requestedUseReranker)

	preWarnings, isEmergency, subtype := safety.PreSynthesisCheck(normalized)

	hits, retrievalWarnings, err := s.retriever.Search(ctx, normalized, topK, filters, useReranker, class)
	if err != nil {
		return nil, err
	}

	warnings := make([]string, 0, len(preWarnings)+len(retrievalWarnings))
	for _, w := range preWarnings {
		warnings = append(warnings, w.Message)
	}
	warnings = append(warnings, retrievalWarnings...)

	grounding := groundingChunks(hits)

	if isEmergency {
		response := s.emergencyFastPath(subtype, hits, grounding, warnings)
		s.publishSafetyEvent(ctx, requestID, response)
		return response, nil
	}

	if s.llm == nil {
		response := s.evidenceOnlyResponse(class, hits, grounding, warnings, errors.ErrCodeLLMUnavailable)
		s.publishSafetyEvent(ctx, requestID, response)
		return response, nil
	}

	messages := s.buildMessages(history, normalized, grounding)
	result, err := s.llm.Generate(ctx, messages, s.maxOutputTok)
	if err != nil {
		code := errors.ErrCodeLLMUnavailable
		if ctx.Err() == context.DeadlineExceeded {
			code = errors.ErrCodeLLMTimeout
		}
		s.logger.Warn("LLM synthesis failed, degrading to evidence-only", logging.Err(err))
		response := s.evidenceOnlyResponse(class, hits, grounding, warnings, code)
		s.publishSafetyEvent(ctx, requestID, response)
		return response, nil
	}

	citedIDs := extractCitedChunkIDs(result.Text, grounding)
	lookup := citation.NewChunkLookup(grounding)
	cites := citation.Resolve(citedIDs, lookup, s.citationIndex, s.visibleTypes)

	postWarnings, reviewRequired := safety.PostSynthesisCheck(s.postCfg, result.Text, grounding, class)
	for _, w := range postWarnings {
		warnings = append(warnings, w.Message)
	}

	kbVersion := ""
	if class == rtypes.ClassCoding && s.codingKB != nil {
		kbVersion = s.codingKB.Version()
	}

	response := &rtypes.AnswerResponse{
		AnswerHTML: renderAnswerHTML(result.Text),
		Citations: citation.VisibleReferences(cites),
		IsEmergency: false,
		Confidence: confidenceFromHits(hits),
		Classification: class,
		SafetyWarnings: warnings,
		GroundingChunks: grounding,
		KBVersion: kbVersion,
		ReviewRequired: reviewRequired,
	}
	s.publishSafetyEvent(ctx, requestID, response)
	return response, nil
}

// publishSafetyEvent emits SafetyEvent audit record for this turn.
// Publication is best-effort: a broker outage must not fail an answer that
// has already been computed.
func (s *Service) publishSafetyEvent(ctx context.Context, requestID string, response *rtypes.AnswerResponse) {
	if s.safetyEvents == nil {
		return
	}
	event := SafetyEvent{
		RequestID: requestID,
		Classification: response.Classification,
		Warnings: response.SafetyWarnings,
		ReviewRequired: response.ReviewRequired,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.safetyEvents.PublishSafetyEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish safety event", logging.String("request_id", requestID), logging.Err(err))
	}
}

func groundingChunks(hits []*rtypes.RetrievedHit) []*rtypes.Chunk {
	out := make([]*rtypes.Chunk, 0, len(hits))
	for _, h := range hits {
		if h.Chunk != nil {
			out = append(out, h.Chunk)
		}
	}
	return out
}

// emergencyFastPath renders the canned protocol template and cites the
// retrieved A1/A2 chunks directly, without an LLM call, targeting the
// sub-500ms end-to-end latency budget.
func (s *Service) emergencyFastPath(subtype safety.EmergencySubtype, hits []*rtypes.RetrievedHit, grounding []*rtypes.Chunk, warnings []string) *rtypes.AnswerResponse {
	protocol := safety.LookupProtocol(subtype)

	citedIDs := make([]string, 0, len(hits))
	for _, h := range hits {
		citedIDs = append(citedIDs, h.ChunkID)
	}
	lookup := citation.NewChunkLookup(grounding)
	cites := citation.Resolve(citedIDs, lookup, s.citationIndex, s.visibleTypes)

	return &rtypes.AnswerResponse{
		AnswerHTML: renderProtocolHTML(protocol),
		Citations: citation.VisibleReferences(cites),
		IsEmergency: true,
		Confidence: 1.0,
		Classification: rtypes.ClassEmergency,
		SafetyWarnings: warnings,
		GroundingChunks: grounding,
		ReviewRequired: false,
	}
}

// evidenceOnlyResponse builds a degraded answer when the LLM backend is
// unavailable or times out: the grounding chunks and their citations are
// still returned, but AnswerHTML carries no synthesized prose. code
// distinguishes llm_unavailable from llm_timeout in the warning text; per
// the propagation policy in pkg/errors, both map to a 200 response and
// never surface as a hard failure to the caller.
func (s *Service) evidenceOnlyResponse(class rtypes.Classification, hits []*rtypes.RetrievedHit, grounding []*rtypes.Chunk, warnings []string, code errors.ErrorCode) *rtypes.AnswerResponse {
	citedIDs := make([]string, 0, len(hits))
	for _, h := range hits {
		citedIDs = append(citedIDs, h.ChunkID)
	}
	lookup := citation.NewChunkLookup(grounding)
	cites := citation.Resolve(citedIDs, lookup, s.citationIndex, s.visibleTypes)

	degraded := append(append([]string{}, warnings...), errors.DefaultMessageForCode(code)+"; returning grounding evidence without synthesized text")

	kbVersion := ""
	if class == rtypes.ClassCoding && s.codingKB != nil {
		kbVersion = s.codingKB.Version()
	}

	return &rtypes.AnswerResponse{
		AnswerHTML: "",
		Citations: citation.VisibleReferences(cites),
		IsEmergency: false,
		Confidence: confidenceFromHits(hits),
		Classification: class,
		SafetyWarnings: degraded,
		GroundingChunks: grounding,
		KBVersion: kbVersion,
		ReviewRequired: true,
	}
}

func renderProtocolHTML(p safety.Protocol) string {
	var sb strings.Builder
	sb.WriteString("<h2>")
	sb.WriteString(p.Title)
	sb.WriteString("</h2><ol>")
	for _, step := range p.Steps {
		sb.WriteString("<li>")
		sb.WriteString(step)
		sb.WriteString("</li>")
	}
	sb.WriteString("</ol><p class=\"warning\">")
	sb.WriteString(p.Warning)
	sb.WriteString("</p>")
	return sb.String()
}

// renderAnswerHTML wraps the LLM's draft text as a single paragraph. The
// draft is expected to already carry its own inline formatting; this layer
// does not attempt markdown rendering.
func renderAnswerHTML(text string) string {
	return "<p>" + text + "</p>"
}

const systemPrompt = `You are an interventional pulmonology reference assistant. Answer using only the numbered context chunks provided. Cite every factual claim inline using the chunk's bracketed id, e.g. [chunk_042]. Do not state a specific dose or numeric threshold unless it appears in the provided context. If the context does not support an answer, say so.`

func (s *Service) buildMessages(history []rtypes.ConversationTurn, normalizedQuery string, grounding []*rtypes.Chunk) []Message {
	messages := []Message{{Role: "system", Content: systemPrompt}}

	start := 0
	if len(history) > s.historyWindow {
		start = len(history) - s.historyWindow
	}
	for _, turn := range history[start:] {
		messages = append(messages, Message{Role: turn.Role, Content: turn.Text})
	}

	var ctx strings.Builder
	for _, c := range grounding {
		ctx.WriteString(fmt.Sprintf("[%s] %s\n\n", c.ChunkID, c.Text))
	}
	messages = append(messages, Message{
			Role: "user",
			Content: fmt.Sprintf("Context:\n%s\nQuestion: %s", ctx.String(), normalizedQuery),
	})
	return messages
}

var citedChunkRe = regexp.MustCompile(`\[([A-Za-z0-9_\-]+)\]`)

// extractCitedChunkIDs scans draft for bracketed chunk-id citations in
// first-appearance order, keeping only ids that actually belong to the
// grounding set (rejecting incidental bracketed text the LLM may emit).
func extractCitedChunkIDs(draft string, grounding []*rtypes.Chunk) []string {
	known := make(map[string]bool, len(grounding))
	for _, c := range grounding {
		known[c.ChunkID] = true
	}
	var out []string
	for _, m := range citedChunkRe.FindAllStringSubmatch(draft, -1) {
		if known[m[1]] {
			out = append(out, m[1])
		}
	}
	return out
}

// confidenceFromHits maps the retrieved set's average final_score
// (range [0,2] per the precedence model) onto [0,1], a coarse but
// deterministic proxy for how strongly the grounding set supports the
// synthesized answer.
func confidenceFromHits(hits []*rtypes.RetrievedHit) float64 {
	if len(hits) == 0 {
		return 0
	}
	var sum float64
	for _, h := range hits {
		sum += h.FinalScore
	}
	avg := sum / float64(len(hits))
	confidence := avg / 2.0
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// Package orchestrator implements the query-answering state machine :
// classify -> set_filters -> retrieve -> rerank? -> safety_pre -> synthesize
// -> safety_post -> end, wiring the classify, retrieval, safety and
// citation domain/application packages behind a single Ask entrypoint.
package orchestrator

import (
	"context"
	"time"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// Message is a single turn passed to the LLM, role "system" | "user" |
// "assistant", matching the shape a chat-completion API expects.
type Message struct {
	Role string
	Content string
}

// GenerateResult is the LLM wrapper's response (synthesize).
type GenerateResult struct {
	Text string
	ToolCalls []ToolCall
	Raw []byte // JSON-serializable raw provider response, for audit logging
}

// ToolCall is a single tool invocation the LLM requested, unused by the
// current synthesize step but part of wrapper contract.
type ToolCall struct {
	Name string
	Arguments string
}

// LLMClient is the external collaborator behind the synthesize transition.
// No model runtime is embedded in this service.
type LLMClient interface {
	Generate(ctx context.Context, messages []Message, maxOutputTokens int) (GenerateResult, error)
}

// KBVersionProvider exposes the procedural coding KB's version so a
// coding-classed answer can report which KB grounded it, per the response
// schema's optional kb_version field.
type KBVersionProvider interface {
	Version() string
}

// ResultCache is result cache: keyed on (normalized_query, filters,
// use_reranker), TTL-bound, satisfied by the Redis-backed adapter in
// internal/infrastructure/cache. loader runs the uncached pipeline and is
// invoked at most once per key even under concurrent callers (the
// underlying adapter's stampede guard), and its result is only cached on
// success.
type ResultCache interface {
	GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (*rtypes.AnswerResponse, error)) (*rtypes.AnswerResponse, error)
}

// SafetyEvent is ambient audit record for one orchestrator turn:
// (request_id, classification, warnings, review_required, created_at).
type SafetyEvent struct {
	RequestID string
	Classification rtypes.Classification
	Warnings []string
	ReviewRequired bool
	CreatedAt time.Time
}

// SafetyEventPublisher is the port satisfied by the Kafka adapter
// publishing to ip-assist.safety.events.
type SafetyEventPublisher interface {
	PublishSafetyEvent(ctx context.Context, event SafetyEvent) error
}

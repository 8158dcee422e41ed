// Package session owns per-session conversation history : appended
// only by the session's own request, read back by the orchestrator to
// build the next turn's chat context. Persisted to Postgres, cached in
// Redis keyed by session_id.
package session

import (
	"context"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// ConversationRepository is the durable store, backed by Postgres.
type ConversationRepository interface {
	Append(ctx context.Context, turn rtypes.ConversationTurn) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]rtypes.ConversationTurn, error)
}

// Cache is the read-through cache in front of ConversationRepository,
// backed by Redis.
type Cache interface {
	Get(ctx context.Context, sessionID string) ([]rtypes.ConversationTurn, bool, error)
	Set(ctx context.Context, sessionID string, turns []rtypes.ConversationTurn) error
	Invalidate(ctx context.Context, sessionID string) error
}

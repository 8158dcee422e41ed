package redis

import (
	"context"
	"time"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// SessionCache implements internal/application/session.Cache over the
// generic Cache, keyed by session_id.
type SessionCache struct {
	cache Cache
	ttl time.Duration
}

// NewSessionCache wires a SessionCache. ttl <= 0 defaults to 30 minutes.
func NewSessionCache(cache Cache, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionCache{cache: cache, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// Get returns sessionID's cached turns. A cache miss reports ok=false with
// a nil error; a real backend failure reports a non-nil error.
func (c *SessionCache) Get(ctx context.Context, sessionID string) ([]rtypes.ConversationTurn, bool, error) {
	var turns []rtypes.ConversationTurn
	err := c.cache.Get(ctx, sessionKey(sessionID), &turns)
	if err == ErrCacheMiss {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return turns, true, nil
}

// Set caches sessionID's turns with the configured TTL.
func (c *SessionCache) Set(ctx context.Context, sessionID string, turns []rtypes.ConversationTurn) error {
	return c.cache.Set(ctx, sessionKey(sessionID), turns, c.ttl)
}

// Invalidate evicts sessionID's cached entry.
func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.cache.Delete(ctx, sessionKey(sessionID))
}

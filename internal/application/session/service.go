package session

import (
	"context"

	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// Service is the cache-aside read path plus the sole append path for a
// session's conversation history. It takes no lock of its own; concurrent
// AppendTurn calls for one session are ordered only by the repository.
type Service struct {
	repo ConversationRepository
	cache Cache // may be nil; falls back to reading through to repo
	log logging.Logger
}

// NewService wires a session Service.
func NewService(repo ConversationRepository, cache Cache, log logging.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// History returns sessionID's turns in chronological order, capped to the
// most recent limit, preferring the cache and falling back to Postgres on
// a cache miss or cache failure.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]rtypes.ConversationTurn, error) {
	if s.cache != nil {
		if turns, ok, err := s.cache.Get(ctx, sessionID); err == nil && ok {
			return turns, nil
		} else if err != nil {
			s.log.Warn("session cache read failed, falling back to postgres", logging.String("session_id", sessionID), logging.Err(err))
		}
	}

	turns, err := s.repo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionID, turns); err != nil {
			s.log.Warn("session cache write failed", logging.String("session_id", sessionID), logging.Err(err))
		}
	}
	return turns, nil
}

// AppendTurn persists turn and invalidates sessionID's cache entry so the
// next History call re-reads the authoritative, now-longer list from
// Postgres rather than serving a stale cached page.
func (s *Service) AppendTurn(ctx context.Context, turn rtypes.ConversationTurn) error {
	if err := s.repo.Append(ctx, turn); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, turn.SessionID); err != nil {
			s.log.Warn("session cache invalidate failed", logging.String("session_id", turn.SessionID), logging.Err(err))
		}
	}
	return nil
}

package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appErrors "github.com/russellmiller49/ip-assist-lite/pkg/errors"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// ConversationRepository persists ConversationTurn rows, the durable
// backing store behind the orchestrator's per-session history, which the
// Redis-backed session cache reads through on a cache miss.
type ConversationRepository struct {
	pool *pgxpool.Pool
	logger Logger
}

// NewConversationRepository constructs a ready-to-use ConversationRepository.
func NewConversationRepository(pool *pgxpool.Pool, logger Logger) *ConversationRepository {
	return &ConversationRepository{pool: pool, logger: logger}
}

// Append inserts turn. (session_id, turn_index) is the natural key: a
// session's turns are appended strictly in order by the orchestrator, the
// sole mutator of a given session's history.
func (r *ConversationRepository) Append(ctx context.Context, turn rtypes.ConversationTurn) error {
	r.logger.Debug("ConversationRepository.Append", "session_id", turn.SessionID, "turn_index", turn.TurnIndex)

	createdAt := time.Unix(turn.CreatedAt, 0).UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversation_turns (session_id, turn_index, role, text, classification, created_at) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (session_id, turn_index) DO NOTHING`,
		turn.SessionID, turn.TurnIndex, turn.Role, turn.Text, string(turn.Classification), createdAt,)
	if err != nil {
		r.logger.Error("ConversationRepository.Append: insert", "error", err)
		return appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to persist conversation turn")
	}
	return nil
}

// ListBySession returns sessionID's turns in chronological order, capped to
// the most recent limit turns (limit <= 0 returns all of them).
func (r *ConversationRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]rtypes.ConversationTurn, error) {
	query := `
	SELECT session_id, turn_index, role, text, classification, created_at
	FROM conversation_turns
	WHERE session_id = $1
	ORDER BY turn_index DESC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to list conversation turns")
	}
	defer rows.Close()

	turns, err := scanConversationTurns(rows)
	if err != nil {
		return nil, err
	}
	// Query returns newest-first (for the LIMIT to bound recency correctly);
	// callers expect chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func scanConversationTurns(rows pgx.Rows) ([]rtypes.ConversationTurn, error) {
	var turns []rtypes.ConversationTurn
	for rows.Next() {
		var turn rtypes.ConversationTurn
		var classification string
		var createdAt time.Time
		if err := rows.Scan(&turn.SessionID, &turn.TurnIndex, &turn.Role, &turn.Text, &classification, &createdAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to scan conversation turn")
		}
		turn.Classification = rtypes.Classification(classification)
		turn.CreatedAt = createdAt.Unix()
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

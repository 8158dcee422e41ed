package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/russellmiller49/ip-assist-lite/internal/application/coding"
	appErrors "github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

// CodingAuditRepository implements
// internal/application/coding.AuditRepository over Postgres, persisting one
// row per procedural coding request (CodingAuditRecord).
type CodingAuditRepository struct {
	pool *pgxpool.Pool
	logger Logger
}

// NewCodingAuditRepository constructs a ready-to-use CodingAuditRepository.
func NewCodingAuditRepository(pool *pgxpool.Pool, logger Logger) *CodingAuditRepository {
	return &CodingAuditRepository{pool: pool, logger: logger}
}

// Save inserts record. request_id is the primary key: a retried request
// with the same id overwrites its prior audit row rather than duplicating
// it, since a request is coded at most once.
func (r *CodingAuditRepository) Save(ctx context.Context, record coding.AuditRecord) error {
	r.logger.Debug("CodingAuditRepository.Save", "request_id", record.RequestID)

	createdAt := time.Unix(record.CreatedAt, 0).UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO coding_audit_records (request_id, note_hash, primary_cpts, add_on_cpts,
			kb_version, warnings, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (request_id) DO UPDATE SET
		note_hash = EXCLUDED.note_hash,
		primary_cpts = EXCLUDED.primary_cpts,
		add_on_cpts = EXCLUDED.add_on_cpts,
		kb_version = EXCLUDED.kb_version,
		warnings = EXCLUDED.warnings`,
		record.RequestID, record.NoteHash, record.PrimaryCPTs, record.AddOnCPTs,
		record.KBVersion, record.Warnings, createdAt,)
	if err != nil {
		r.logger.Error("CodingAuditRepository.Save: insert", "error", err)
		return appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to persist coding audit record")
	}
	return nil
}

// FindByRequestID returns the persisted audit record for requestID, used by
// the compliance-review surface to look up how a past case was coded.
func (r *CodingAuditRepository) FindByRequestID(ctx context.Context, requestID string) (*coding.AuditRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT request_id, note_hash, primary_cpts, add_on_cpts, kb_version, warnings, created_at
		FROM coding_audit_records WHERE request_id = $1`, requestID)

	var record coding.AuditRecord
	var createdAt time.Time
	if err := row.Scan(&record.RequestID, &record.NoteHash, &record.PrimaryCPTs, &record.AddOnCPTs,
		&record.KBVersion, &record.Warnings, &createdAt,); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeNotFound, "coding audit record not found")
	}
	record.CreatedAt = createdAt.Unix()
	return &record, nil
}

package coding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/russellmiller49/ip-assist-lite/internal/domain/coding"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
	ctypes "github.com/russellmiller49/ip-assist-lite/pkg/types/coding"
)

// Service implements procedural coding pipeline as a request-scoped
// operation: extract -> rules -> CodeBundle, plus audit persistence and
// event publication.
type Service struct {
	kb *coding.KB
	auditRepo AuditRepository
	publisher EventPublisher
	archiver NoteArchiver
	logger logging.Logger
}

// NewService wires the coding pipeline. auditRepo, publisher and archiver
// may be nil, in which case audit persistence, event publication, and note
// archiving are skipped — callers that only need code(note) for interactive
// use (e.g. a CLI) are not forced to stand up Postgres/Kafka/MinIO.
func NewService(kb *coding.KB, auditRepo AuditRepository, publisher EventPublisher, archiver NoteArchiver, logger logging.Logger) *Service {
	return &Service{kb: kb, auditRepo: auditRepo, publisher: publisher, archiver: archiver, logger: logger}
}

// Code runs the pipeline for a single operative note and, when configured,
// persists and publishes the resulting CodingAuditRecord.
func (s *Service) Code(ctx context.Context, requestID string, noteText string, patientCtx *ctypes.PatientContext) (*ctypes.CodeBundle, error) {
	if noteText == "" {
		return nil, errors.InvalidParam("note_text is required")
	}
	if s.kb == nil {
		return nil, errors.New(errors.ErrCodeKBLoadFailed, "no coding KB loaded")
	}

	extraction := coding.Extract(noteText)
	bundle := coding.CodeCase(extraction, patientCtx, noteText, s.kb)
	coding.ExplainAll(bundle)

	record := AuditRecord{
		RequestID: requestID,
		NoteHash: hashNote(noteText),
		PrimaryCPTs: bundle.PrimaryCPTs,
		AddOnCPTs: bundle.AddOnCPTs,
		KBVersion: bundle.KBVersion,
		Warnings: bundle.Warnings,
		CreatedAt: time.Now().UTC().Unix(),
	}

	if s.auditRepo != nil {
		if err := s.auditRepo.Save(ctx, record); err != nil {
			s.logger.Error("failed to persist coding audit record", logging.String("request_id", requestID), logging.Err(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishCodingEvent(ctx, record); err != nil {
			s.logger.Error("failed to publish coding event", logging.String("request_id", requestID), logging.Err(err))
		}
	}
	if s.archiver != nil {
		if err := s.archiver.ArchiveNote(ctx, requestID, record.NoteHash, noteText); err != nil {
			s.logger.Error("failed to archive operative note", logging.String("request_id", requestID), logging.Err(err))
		}
	}

	return bundle, nil
}

// hashNote returns a hex-encoded sha256 of the note text, used as the
// audit trail's note_hash so the original operative note text need not be
// duplicated into the audit record itself.
func hashNote(noteText string) string {
	sum := sha256.Sum256([]byte(noteText))
	return hex.EncodeToString(sum[:])
}

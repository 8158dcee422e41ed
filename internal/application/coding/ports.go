// Package coding is the application-level procedural coding service: it
// wires the extraction/rules/KB pipeline in internal/domain/coding to
// audit persistence and event publishing, and implements the /v1/code
// request/response contract.
package coding

import "context"

// AuditRecord mirrors the CodingAuditRecord ambient record type :
// (request_id, note_hash, code_bundle summary, kb_version, warnings,
// created_at). CreatedAt is a Unix timestamp stamped by the caller.
type AuditRecord struct {
	RequestID string
	NoteHash string
	PrimaryCPTs []string
	AddOnCPTs []string
	KBVersion string
	Warnings []string
	CreatedAt int64
}

// AuditRepository persists a CodingAuditRecord, backed by Postgres.
type AuditRepository interface {
	Save(ctx context.Context, record AuditRecord) error
}

// EventPublisher publishes a CodingAuditRecord to the billing/compliance
// event stream, backed by Kafka topic ip-assist.coding.events.
type EventPublisher interface {
	PublishCodingEvent(ctx context.Context, record AuditRecord) error
}

// NoteArchiver persists the raw operative note text submitted to the coding
// path, keyed by request_id, so an auditor can replay exactly what was
// coded. noteHash is attached so a replayed archive entry can be verified
// against its AuditRecord's NoteHash without re-hashing the whole corpus.
type NoteArchiver interface {
	ArchiveNote(ctx context.Context, requestID, noteHash, noteText string) error
}

package minio

import (
	"context"

	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

// NoteArchive implements internal/application/coding.NoteArchiver on top of
// the generic ObjectStorageRepository, storing each operative note under
// the coding-notes bucket keyed by request_id and tagging the object with
// its note_hash so a replayed archive entry can be checked against the
// CodingAuditRecord it belongs to without re-hashing the corpus.
type NoteArchive struct {
	repo   ObjectStorageRepository
	bucket string
}

// NewNoteArchive wires a NoteArchive against client's coding-notes bucket.
func NewNoteArchive(client *MinIOClient, repo ObjectStorageRepository) *NoteArchive {
	return &NoteArchive{repo: repo, bucket: client.GetBucketName("coding_notes")}
}

// ArchiveNote uploads noteText to coding-notes/<requestID>, overwriting any
// prior archive entry for the same request_id (retried requests archive
// the same content again rather than accumulating duplicates).
func (a *NoteArchive) ArchiveNote(ctx context.Context, requestID, noteHash, noteText string) error {
	if requestID == "" {
		return errors.InvalidParam("request_id is required to archive an operative note")
	}
	_, err := a.repo.Upload(ctx, &UploadRequest{
		Bucket:      a.bucket,
		ObjectKey:   requestID,
		Data:        []byte(noteText),
		ContentType: "text/plain; charset=utf-8",
		Tags:        map[string]string{"note_hash": noteHash},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to archive operative note")
	}
	return nil
}

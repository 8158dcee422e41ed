package minio

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
)

type NoteArchiveTestSuite struct {
	suite.Suite
	mockAPI *MockMinIOAPI
	archive *NoteArchive
}

func (s *NoteArchiveTestSuite) SetupTest() {
	s.mockAPI = new(MockMinIOAPI)
	repo := NewMinIORepositoryWithAPI(s.mockAPI, logging.NewNopLogger())
	client := &MinIOClient{config: &MinIOConfig{Buckets: BucketConfig{CodingNotes: "coding-notes"}}}
	s.archive = NewNoteArchive(client, repo)
}

func (s *NoteArchiveTestSuite) TestArchiveNote_UploadsUnderRequestID() {
	s.mockAPI.On("PutObject", mock.Anything, "coding-notes", "req-123", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{Bucket: "coding-notes", Key: "req-123"}, nil)

	err := s.archive.ArchiveNote(context.Background(), "req-123", "abc123hash", "flexible bronchoscopy with EBUS-TBNA of station 7")
	assert.NoError(s.T(), err)
	s.mockAPI.AssertExpectations(s.T())
}

func (s *NoteArchiveTestSuite) TestArchiveNote_RequiresRequestID() {
	err := s.archive.ArchiveNote(context.Background(), "", "abc123hash", "some note")
	assert.Error(s.T(), err)
}

func TestNoteArchiveSuite(t *testing.T) {
	suite.Run(t, new(NoteArchiveTestSuite))
}

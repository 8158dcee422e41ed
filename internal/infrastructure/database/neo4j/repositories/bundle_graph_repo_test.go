package repositories

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
)

type BundleGraphRepoTestSuite struct {
	suite.Suite
	mockDriver *MockInfraDriver
	mockTx     *MockInfraTransaction
	repo       *BundleGraphRepo
}

func (s *BundleGraphRepoTestSuite) SetupTest() {
	s.mockDriver, s.mockTx = SetupMockDriver(s.T())
	s.repo = NewBundleGraphRepo(s.mockDriver, logging.NewNopLogger())
}

func (s *BundleGraphRepoTestSuite) TestLoadNCCIBundles_MapsRecords() {
	mockRes := new(MockResult)
	mockRes.Records = []*neo4j.Record{
		NewRecord([]string{"bundled", "into", "note"}, []any{"31622", "31628", "diagnostic bronch bundles into biopsy"}),
	}
	s.mockTx.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(mockRes, nil)

	pairs, err := s.repo.LoadNCCIBundles(context.Background())
	assert.NoError(s.T(), err)
	assert.Len(s.T(), pairs, 1)
	assert.Equal(s.T(), "31622", pairs[0].Bundled)
	assert.Equal(s.T(), "31628", pairs[0].Into)
}

func (s *BundleGraphRepoTestSuite) TestLoadICD10PCSCrosswalk_MapsRecords() {
	mockRes := new(MockResult)
	mockRes.Records = []*neo4j.Record{
		NewRecord([]string{"key", "code"}, []any{"tracheal_excision", "0BB18ZZ"}),
	}
	s.mockTx.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(mockRes, nil)

	crosswalk, err := s.repo.LoadICD10PCSCrosswalk(context.Background())
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "0BB18ZZ", crosswalk["tracheal_excision"])
}

func (s *BundleGraphRepoTestSuite) TestSeedNCCIBundles_EmptyIsNoop() {
	err := s.repo.SeedNCCIBundles(context.Background(), nil)
	assert.NoError(s.T(), err)
	s.mockTx.AssertNotCalled(s.T(), "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestBundleGraphRepo(t *testing.T) {
	suite.Run(t, new(BundleGraphRepoTestSuite))
}

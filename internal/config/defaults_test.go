package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)
	assert.Equal(t, DefaultRetrievalTopK, cfg.Retrieval.TopK)
	assert.Equal(t, DefaultA1Floor, cfg.Precedence.A1Floor)
	assert.Equal(t, DefaultCacheTTLSec, cfg.Cache.TTLSec)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Retrieval.TopK = 10
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		ApplyDefaults(nil)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8080
  mode: "debug"
database:
  host: "localhost"
  port: 5432
  user: "ip_assist"
  password: "secret"
  db_name: "ip_assist"
redis:
  addr: "localhost:6379"
kafka:
  brokers: ["localhost:9092"]
  group_id: "ip-assist-group"
milvus:
  addr: "localhost:19530"
retrieval:
  top_m: 60
  top_k: 5
  sparse_backend: "bm25"
coding:
  kb_paths: ["data/ip_coding_billing.json"]
  kb_graph_backend: "memory"
`

func createTempConfigFile(t *testing.T, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func setEnvVars(t *testing.T, vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range vars {
			os.Unsetenv(k)
		}
	})
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_config.yaml")
	assert.Error(t, err)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "invalid_yaml: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	invalidConfig := `
server:
  port: 70000
database:
  host: "localhost"
  user: "x"
  db_name: "x"
`
	path := createTempConfigFile(t, invalidConfig)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"IPASSIST_SERVER_PORT": "9999",
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"IPASSIST_DATABASE_HOST": "db-host",
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db-host", cfg.Database.Host)
}

func TestLoad_DefaultsAppliedForUnsetFields(t *testing.T) {
	minimalYAML := `
database:
  host: "localhost"
  user: "ip_assist"
  db_name: "ip_assist"
`
	path := createTempConfigFile(t, minimalYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultRetrievalTopK, cfg.Retrieval.TopK)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	setEnvVars(t, map[string]string{
		"IPASSIST_DATABASE_HOST":     "localhost",
		"IPASSIST_DATABASE_PORT":     "5432",
		"IPASSIST_DATABASE_USER":     "ip_assist",
		"IPASSIST_DATABASE_PASSWORD": "secret",
		"IPASSIST_DATABASE_DB_NAME":  "ip_assist",
	})

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestMustLoad_Success(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() {
		MustLoad(path)
	})
}

func TestMustLoad_Panic(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad("non_existent.yaml")
	})
}

func TestWatch_OnChangeFiresWithValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	changed := make(chan *Config, 1)
	Watch(path, func(cfg *Config) {
		changed <- cfg
	})

	updated := validConfigYAML + "\nlog:\n  level: \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "debug", cfg.Log.Level)
	case <-time.After(2 * time.Second):
		t.Skip("filesystem watch did not fire within timeout; environment-dependent")
	}
}

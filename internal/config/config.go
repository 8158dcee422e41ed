// Package config defines all configuration structures for the ip-assist-lite
// service. No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig holds the internal gRPC server's tunables.
type GRPCConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Debug          bool          `mapstructure:"debug"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// Neo4jConfig holds Neo4j connection parameters. Only consulted when
// coding.kb_graph_backend=neo4j.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	Database              string        `mapstructure:"database"`
}

// RedisConfig holds Redis connection parameters for the result and
// conversation-history caches.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer parameters for the coding and
// safety event topics.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	GroupID           string   `mapstructure:"group_id"`
	AutoOffsetReset   string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	TimeoutMS         int      `mapstructure:"timeout_ms"`
	ProducerRetries   int      `mapstructure:"producer_retries"`
	BatchSize         int      `mapstructure:"batch_size"`
	AutoCreateTopics  bool     `mapstructure:"auto_create_topics"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
	NumPartitions     int      `mapstructure:"num_partitions"`
	CodingTopic       string   `mapstructure:"coding_topic"`
	SafetyTopic       string   `mapstructure:"safety_topic"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters. Only
// consulted when retrieval.sparse_backend=opensearch.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
	ScrollSize         int      `mapstructure:"scroll_size"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// MilvusConfig holds Milvus vector-store connection parameters for the dense
// index client.
type MilvusConfig struct {
	Addr               string `mapstructure:"addr"`
	DBName             string `mapstructure:"db_name"`
	Collection         string `mapstructure:"collection"`
	EmbeddingDim       int    `mapstructure:"embedding_dim"`
	IndexType          string `mapstructure:"index_type"`
	HNSWM              int    `mapstructure:"hnsw_m"`
	HNSWEfConstruction int    `mapstructure:"hnsw_ef_construction"`
	DefaultTopK        int    `mapstructure:"default_top_k"`
	CollectionPrefix   string `mapstructure:"collection_prefix"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters, used to
// archive operative-note text, keyed by request_id, for audit replay.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// KeycloakConfig holds Keycloak OIDC bearer-token verification parameters.
type KeycloakConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Realm        string        `mapstructure:"realm"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	JWKSCacheTTL time.Duration `mapstructure:"jwks_cache_ttl"`
	Audience     string        `mapstructure:"audience"`
}

// WorkerConfig holds the request-level worker pool's execution parameters.
type WorkerConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	QueueDepth        int           `mapstructure:"queue_depth"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoffMS    time.Duration `mapstructure:"retry_backoff_ms"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
	SamplingRate     int    `mapstructure:"sampling_rate"`
}

// LLMConfig holds the answer-synthesis LLM client's connection parameters.
type LLMConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	ReasoningEffort string        `mapstructure:"reasoning_effort"`
}

// RetrievalConfig holds hybrid-retriever tunables.
type RetrievalConfig struct {
	TopM            int    `mapstructure:"top_m"`
	TopK            int    `mapstructure:"top_k"`
	RerankerEnabled bool   `mapstructure:"reranker_enabled"`
	SparseBackend   string `mapstructure:"sparse_backend"` // "bm25" | "opensearch"
}

// PrecedenceConfig holds the authority/evidence/recency scoring model's
// tunables. Half-lives are keyed by domain (coding_billing, ablation,
// clinical, lung_volume_reduction, technology_navigation).
type PrecedenceConfig struct {
	HalflifeYears map[string]float64 `mapstructure:"halflife_years"`
	A1Floor       float64            `mapstructure:"a1_floor"`
}

// SafetyConfig holds the safety layer's pre/post-check tunables.
type SafetyConfig struct {
	PediatricKeywords    []string `mapstructure:"pediatric_keywords"`
	EmergencyPatterns    []string `mapstructure:"emergency_patterns"`
	DoseConfirmMinSource int      `mapstructure:"dose_confirm_min_sources"`
	DoseVariancePct      float64  `mapstructure:"dose_variance_pct"`
}

// CitationConfig holds the citation resolver's visibility policy.
type CitationConfig struct {
	VisibleDocTypes []string `mapstructure:"visible_doctypes"`
}

// CacheConfig holds the result-cache's TTL and bound.
type CacheConfig struct {
	TTLSec int `mapstructure:"ttl_sec"`
	Max    int `mapstructure:"max"`
}

// BudgetConfig holds request-latency budgets.
type BudgetConfig struct {
	RequestMS   int `mapstructure:"request_ms"`
	EmergencyMS int `mapstructure:"emergency_ms"`
}

// CodingConfig holds the procedural coder's knowledge-base and backend
// selection.
type CodingConfig struct {
	KBPaths        []string `mapstructure:"kb_paths"`
	KBGraphBackend string   `mapstructure:"kb_graph_backend"` // "memory" | "neo4j"
}

// MultitenancyConfig holds multi-tenancy isolation parameters.
type MultitenancyConfig struct {
	EnableRLS    bool   `mapstructure:"enable_rls"`
	TenantHeader string `mapstructure:"tenant_header"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the service. Every
// infrastructure component and application service reads its settings from
// the relevant sub-struct.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	GRPC         GRPCConfig         `mapstructure:"grpc"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Neo4j        Neo4jConfig        `mapstructure:"neo4j"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	OpenSearch   OpenSearchConfig   `mapstructure:"opensearch"`
	Milvus       MilvusConfig       `mapstructure:"milvus"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	Keycloak     KeycloakConfig     `mapstructure:"keycloak"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Log          LogConfig          `mapstructure:"log"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Retrieval    RetrievalConfig    `mapstructure:"retrieval"`
	Precedence   PrecedenceConfig   `mapstructure:"precedence"`
	Safety       SafetyConfig       `mapstructure:"safety"`
	Citation     CitationConfig     `mapstructure:"citation"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Budget       BudgetConfig       `mapstructure:"budget"`
	Coding       CodingConfig       `mapstructure:"coding"`
	Multitenancy MultitenancyConfig `mapstructure:"multitenancy"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// gRPC
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// Milvus
	if c.Milvus.Addr == "" {
		return fmt.Errorf("config: milvus.addr is required")
	}

	// OpenSearch — only required when selected as the sparse backend.
	if c.Retrieval.SparseBackend == "opensearch" && len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses is required when retrieval.sparse_backend=opensearch")
	}

	// Neo4j — only required when selected as the coding KB graph backend.
	if c.Coding.KBGraphBackend == "neo4j" && c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required when coding.kb_graph_backend=neo4j")
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Retrieval
	if c.Retrieval.TopM < c.Retrieval.TopK {
		return fmt.Errorf("config: retrieval.top_m (%d) must be ≥ retrieval.top_k (%d)", c.Retrieval.TopM, c.Retrieval.TopK)
	}
	switch c.Retrieval.SparseBackend {
	case "bm25", "opensearch":
	default:
		return fmt.Errorf("config: retrieval.sparse_backend %q is invalid; expected bm25|opensearch", c.Retrieval.SparseBackend)
	}

	// Precedence
	if c.Precedence.A1Floor < 0 || c.Precedence.A1Floor > 1 {
		return fmt.Errorf("config: precedence.a1_floor %f must be in [0, 1]", c.Precedence.A1Floor)
	}

	// Safety
	if c.Safety.DoseConfirmMinSource < 1 {
		return fmt.Errorf("config: safety.dose_confirm_min_sources must be ≥ 1, got %d", c.Safety.DoseConfirmMinSource)
	}

	// Cache
	if c.Cache.TTLSec < 1 {
		return fmt.Errorf("config: cache.ttl_sec must be ≥ 1, got %d", c.Cache.TTLSec)
	}
	if c.Cache.Max < 1 {
		return fmt.Errorf("config: cache.max must be ≥ 1, got %d", c.Cache.Max)
	}

	// Budget
	if c.Budget.RequestMS < c.Budget.EmergencyMS {
		return fmt.Errorf("config: budget.request_ms (%d) must be ≥ budget.emergency_ms (%d)", c.Budget.RequestMS, c.Budget.EmergencyMS)
	}

	// Coding
	if len(c.Coding.KBPaths) == 0 {
		return fmt.Errorf("config: coding.kb_paths must list at least one KB file path")
	}
	switch c.Coding.KBGraphBackend {
	case "memory", "neo4j":
	default:
		return fmt.Errorf("config: coding.kb_graph_backend %q is invalid; expected memory|neo4j", c.Coding.KBGraphBackend)
	}

	return nil
}

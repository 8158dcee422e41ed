// Package config provides configuration loading, defaults, and validation for
// the ip-assist-lite service.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"
	DefaultGRPCHost = "0.0.0.0"
	DefaultGRPCPort = 9090

	DefaultDBHost = "localhost"
	DefaultDBPort = 5432
	DefaultDBName = "ip_assist"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB = 0

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaGroupID = "ip-assist-group"
	DefaultCodingTopic = "ip-assist.coding.events"
	DefaultSafetyTopic = "ip-assist.safety.events"

	DefaultMilvusAddr = "localhost:19530"
	DefaultMilvusCollection = "ip_chunks"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket = "ip-assist-notes"

	DefaultLogLevel = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 10

	DefaultRetrievalTopM = 60
	DefaultRetrievalTopK = 5

	DefaultA1Floor = 0.7
	DefaultDoseConfirmMin = 2
	DefaultDoseVariancePct = 20.0
	DefaultCacheTTLSec = 600
	DefaultCacheMax = 256
	DefaultBudgetRequestMS = 5000
	DefaultBudgetEmergency = 500
)

// defaultHalflifeYears mirrors domain-specific recency half-lives.
func defaultHalflifeYears() map[string]float64 {
	return map[string]float64{
		"coding_billing": 3,
		"technology_navigation": 4,
		"ablation": 5,
		"lung_volume_reduction": 5,
		"clinical": 6,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}

	// ── gRPC ──────────────────────────────────────────────────────────────────
	if cfg.GRPC.Host == "" {
		cfg.GRPC.Host = DefaultGRPCHost
	}
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	// DB is an int; 0 is a valid explicit value so we cannot distinguish "not
	// set" from "set to 0". We leave it as-is (0 is also the default).

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.CodingTopic == "" {
		cfg.Kafka.CodingTopic = DefaultCodingTopic
	}
	if cfg.Kafka.SafetyTopic == "" {
		cfg.Kafka.SafetyTopic = DefaultSafetyTopic
	}

	// ── Milvus ────────────────────────────────────────────────────────────────
	if cfg.Milvus.Addr == "" {
		cfg.Milvus.Addr = DefaultMilvusAddr
	}
	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = DefaultMilvusCollection
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Retrieval ─────────────────────────────────────────────────────────────
	if cfg.Retrieval.TopM == 0 {
		cfg.Retrieval.TopM = DefaultRetrievalTopM
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultRetrievalTopK
	}
	if cfg.Retrieval.SparseBackend == "" {
		cfg.Retrieval.SparseBackend = "bm25"
	}

	// ── Precedence ────────────────────────────────────────────────────────────
	if cfg.Precedence.A1Floor == 0 {
		cfg.Precedence.A1Floor = DefaultA1Floor
	}
	if len(cfg.Precedence.HalflifeYears) == 0 {
		cfg.Precedence.HalflifeYears = defaultHalflifeYears()
	}

	// ── Safety ────────────────────────────────────────────────────────────────
	if cfg.Safety.DoseConfirmMinSource == 0 {
		cfg.Safety.DoseConfirmMinSource = DefaultDoseConfirmMin
	}
	if cfg.Safety.DoseVariancePct == 0 {
		cfg.Safety.DoseVariancePct = DefaultDoseVariancePct
	}

	// ── Citation ──────────────────────────────────────────────────────────────
	if len(cfg.Citation.VisibleDocTypes) == 0 {
		cfg.Citation.VisibleDocTypes = []string{"journal_article", "guideline", "systematic_review"}
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.TTLSec == 0 {
		cfg.Cache.TTLSec = DefaultCacheTTLSec
	}
	if cfg.Cache.Max == 0 {
		cfg.Cache.Max = DefaultCacheMax
	}

	// ── Budget ────────────────────────────────────────────────────────────────
	if cfg.Budget.RequestMS == 0 {
		cfg.Budget.RequestMS = DefaultBudgetRequestMS
	}
	if cfg.Budget.EmergencyMS == 0 {
		cfg.Budget.EmergencyMS = DefaultBudgetEmergency
	}

	// ── Coding ────────────────────────────────────────────────────────────────
	if len(cfg.Coding.KBPaths) == 0 {
		cfg.Coding.KBPaths = []string{"data/ip_coding_billing.json", "data/coding_module.json"}
	}
	if cfg.Coding.KBGraphBackend == "" {
		cfg.Coding.KBGraphBackend = "memory"
	}

	// ── Multitenancy ──────────────────────────────────────────────────────────
	if cfg.Multitenancy.TenantHeader == "" {
		cfg.Multitenancy.TenantHeader = "X-Tenant-ID"
	}

	// ── LLM ───────────────────────────────────────────────────────────────────
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.MaxOutputTokens == 0 {
		cfg.LLM.MaxOutputTokens = 1024
	}
}

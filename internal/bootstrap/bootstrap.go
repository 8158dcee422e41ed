// Package bootstrap is the composition root: it turns a loaded Config into
// a fully wired set of handlers and a router, degrading to nil/no-op ports
// wherever an optional backend is not configured, mirroring the nil-is-skip
// convention already used by internal/application/coding.Service and
// internal/application/orchestrator.Service.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	appcoding "github.com/russellmiller49/ip-assist-lite/internal/application/coding"
	"github.com/russellmiller49/ip-assist-lite/internal/application/orchestrator"
	"github.com/russellmiller49/ip-assist-lite/internal/application/retrieval"
	"github.com/russellmiller49/ip-assist-lite/internal/application/session"
	"github.com/russellmiller49/ip-assist-lite/internal/config"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/bm25"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/citation"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/coding"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/precedence"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/querynorm"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/safety"
	"github.com/russellmiller49/ip-assist-lite/internal/domain/termindex"
	neo4jdriver "github.com/russellmiller49/ip-assist-lite/internal/infrastructure/database/neo4j"
	neo4jrepos "github.com/russellmiller49/ip-assist-lite/internal/infrastructure/database/neo4j/repositories"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/database/redis"
	pgrepos "github.com/russellmiller49/ip-assist-lite/internal/infrastructure/database/postgres/repositories"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/cache"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/llm"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/messaging/kafka"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/prometheus"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/storage/minio"
	"github.com/russellmiller49/ip-assist-lite/internal/intelligence/common"
	httpiface "github.com/russellmiller49/ip-assist-lite/internal/interfaces/http"
	"github.com/russellmiller49/ip-assist-lite/internal/interfaces/http/handlers"
	"github.com/russellmiller49/ip-assist-lite/internal/interfaces/http/middleware"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// Dependencies holds every constructed component along with the shutdown
// hooks needed to release them cleanly.
type Dependencies struct {
	Router  httpiface.RouterConfig
	Metrics prometheus.MetricsCollector
	Logger  logging.Logger

	closers []func(context.Context) error
}

// Close releases every backend connection opened during Build, in reverse
// wiring order, returning the first error encountered.
func (d *Dependencies) Close(ctx context.Context) error {
	var firstErr error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build wires the query/coding stack from cfg. Every third-party backend is
// optional: an empty address/host leaves that concern degraded (in-memory
// KB only, no session persistence, no dense/sparse backend beyond the
// in-process BM25 index) rather than failing startup, matching the
// degradation contract the retrieval and coding services already implement.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	kb, err := buildKB(ctx, cfg, logger, deps)
	if err != nil {
		return nil, err
	}

	// terms stays empty: populating it requires a chunk corpus mapping CPT
	// codes and aliases to chunk IDs, which no ingestion pipeline builds yet.
	// The hybrid retriever's exact-match stage simply contributes no
	// candidates until that pipeline exists.
	terms := termindex.New()

	sparse := bm25.New()
	citationIndex, err := citation.LoadIndexFromFile("data/citation_index.json")
	if err != nil {
		logger.Warn("no citation index file found, citations will resolve from grounding-chunk content only", logging.Err(err))
		citationIndex = citation.NewIndex(map[string]rtypes.CitationRecord{})
	}

	dense, sparseSearcher, chatClient, reranker := buildSearchAndLLM(cfg, logger, deps)
	if sparseSearcher == nil {
		sparseSearcher = bm25Adapter{sparse}
	}

	weights := precedence.DefaultWeights()
	retrievalSvc := retrieval.NewService(dense, sparseSearcher, terms, emptyChunkStore{}, reranker, weights, logger, func() int { return time.Now().Year() })

	orch := orchestrator.NewService(
		querynorm.New(),
		nil,
		retrievalSvc,
		chatClient,
		citationIndex,
		safety.DefaultPostSynthesisCheckConfig(),
		kb,
		logger,
	)

	pool := buildPostgres(ctx, cfg, logger, deps)
	var sessions *session.Service
	var auditRepo appcoding.AuditRepository
	if pool != nil {
		convoRepo := pgrepos.NewConversationRepository(pool, pgLogger{logger})
		var sessCache session.Cache
		if rc := buildRedisSessionCache(cfg, logger, deps); rc != nil {
			sessCache = rc
		}
		sessions = session.NewService(convoRepo, sessCache, logger)
		auditRepo = pgrepos.NewCodingAuditRepository(pool, pgLogger{logger})
	}

	var codingPublisher appcoding.EventPublisher
	var safetyPublisher orchestrator.SafetyEventPublisher
	if producer := buildKafkaProducer(cfg, logger, deps); producer != nil {
		codingPublisher = kafka.NewCodingEventPublisher(producer)
		safetyPublisher = kafka.NewSafetyEventPublisher(producer)
	}
	if safetyPublisher != nil {
		orch.SetSafetyEventPublisher(safetyPublisher)
	}

	if resultCache := buildResultCache(cfg, logger, deps); resultCache != nil {
		orch.SetResultCache(resultCache, time.Duration(cfg.Cache.TTLSec)*time.Second)
	}

	var archiver appcoding.NoteArchiver
	if a := buildNoteArchiver(cfg, logger, deps); a != nil {
		archiver = a
	}

	codingSvc := appcoding.NewService(kb, auditRepo, codingPublisher, archiver, logger)

	metrics, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "ip_assist",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build metrics collector")
	}
	deps.Metrics = metrics

	corsMW := middleware.NewCORSMiddleware(middleware.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", cfg.Multitenancy.TenantHeader},
	})

	limiter := middleware.NewTokenBucketLimiter(50, 100, time.Minute)
	deps.closers = append(deps.closers, func(context.Context) error { limiter.Stop(); return nil })
	rateLimitMW := middleware.RateLimit(limiter, middleware.RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
	})

	deps.Router = httpiface.RouterConfig{
		QueryHandler:        handlers.NewQueryHandler(orch, sessions, logger),
		CodingHandler:       handlers.NewCodingHandler(codingSvc, logger),
		HealthHandler:       handlers.NewHealthHandler(kb.Version()),
		CORSMiddleware:      corsMW.Handler,
		LoggingMiddleware:   middleware.RequestLogging(logger, middleware.LoggingConfig{SkipPaths: []string{"/healthz", "/readyz", "/metrics"}}),
		RateLimitMiddleware: rateLimitMW,
		TenantMiddleware:    buildTenantMiddleware(cfg, logger),
		Logger:              logger,
		MetricsCollector:    metrics,
	}

	return deps, nil
}

func buildKB(ctx context.Context, cfg *config.Config, logger logging.Logger, deps *Dependencies) (*coding.KB, error) {
	paths := cfg.Coding.KBPaths
	if len(paths) == 0 {
		paths = []string{"data/ip_coding_billing.json", "data/coding_module.json"}
	}
	kb, err := coding.LoadKB(paths)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeKBLoadFailed, "failed to load coding knowledge base at startup")
	}

	if cfg.Coding.KBGraphBackend == "neo4j" && cfg.Neo4j.URI != "" {
		infraCfg := neo4jdriver.Neo4jConfig{
			URI:                   cfg.Neo4j.URI,
			Username:              cfg.Neo4j.User,
			Password:              cfg.Neo4j.Password,
			Database:              cfg.Neo4j.Database,
			MaxConnectionPoolSize: cfg.Neo4j.MaxConnectionPoolSize,
			ConnectionAcquisitionTimeout: cfg.Neo4j.ConnectionTimeout,
		}
		driver, err := neo4jdriver.NewDriver(infraCfg, logger)
		if err != nil {
			logger.Warn("neo4j graph backend unavailable, coding KB stays on flat-file bundles/crosswalk", logging.Err(err))
		} else {
			deps.closers = append(deps.closers, func(context.Context) error { return driver.Close() })
			bundleRepo := neo4jrepos.NewBundleGraphRepo(driver, logger)
			if err := kb.LoadFromGraph(ctx, bundleRepo); err != nil {
				logger.Warn("failed to seed coding KB from graph backend, keeping flat-file bundles/crosswalk", logging.Err(err))
			}
		}
	}

	return kb, nil
}

func buildPostgres(ctx context.Context, cfg *config.Config, logger logging.Logger, deps *Dependencies) *pgxpool.Pool {
	if cfg.Database.Host == "" {
		return nil
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, cfg.Database.SSLMode)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Warn("postgres unavailable, session history and coding audit trail are disabled", logging.Err(err))
		return nil
	}
	deps.closers = append(deps.closers, func(context.Context) error { pool.Close(); return nil })
	return pool
}

func buildRedisSessionCache(cfg *config.Config, logger logging.Logger, deps *Dependencies) *redis.SessionCache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client, err := redis.NewClient(&redis.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, session history reads through to postgres on every request", logging.Err(err))
		return nil
	}
	deps.closers = append(deps.closers, func(context.Context) error { return client.Close() })
	redisCache := redis.NewRedisCache(client, logger)
	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return redis.NewSessionCache(redisCache, ttl)
}

func buildResultCache(cfg *config.Config, logger logging.Logger, deps *Dependencies) *cache.ResultCache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client, err := redis.NewClient(&redis.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Warn("redis unavailable, answer results are not cached", logging.Err(err))
		return nil
	}
	deps.closers = append(deps.closers, func(context.Context) error { return client.Close() })
	redisCache := redis.NewRedisCache(client, logger)
	max := cfg.Cache.Max
	if max <= 0 {
		max = 1000
	}
	rc, err := cache.NewResultCache(redisCache, max, logger)
	if err != nil {
		logger.Warn("failed to build local result cache, answer results are not cached", logging.Err(err))
		return nil
	}
	return rc
}

func buildKafkaProducer(cfg *config.Config, logger logging.Logger, deps *Dependencies) *kafka.Producer {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil
	}
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.ProducerRetries,
		BatchSize:    cfg.Kafka.BatchSize,
		WriteTimeout: time.Duration(cfg.Kafka.TimeoutMS) * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Warn("kafka unavailable, coding/safety events are not published", logging.Err(err))
		return nil
	}
	deps.closers = append(deps.closers, func(context.Context) error { return producer.Close() })
	return producer
}

func buildNoteArchiver(cfg *config.Config, logger logging.Logger, deps *Dependencies) *minio.NoteArchive {
	if cfg.MinIO.Endpoint == "" {
		return nil
	}
	client, err := minio.NewMinIOClient(&minio.MinIOConfig{
		Endpoint:        cfg.MinIO.Endpoint,
		AccessKeyID:     cfg.MinIO.AccessKey,
		SecretAccessKey: cfg.MinIO.SecretKey,
		UseSSL:          cfg.MinIO.UseSSL,
		DefaultBucket:   cfg.MinIO.Bucket,
		PresignExpiry:   cfg.MinIO.PresignExpiry,
	}, logger)
	if err != nil {
		logger.Warn("minio unavailable, operative notes are not archived", logging.Err(err))
		return nil
	}
	repo := minio.NewObjectStorageRepository(client, logger)
	return minio.NewNoteArchive(client, repo)
}

func buildSearchAndLLM(cfg *config.Config, logger logging.Logger, deps *Dependencies) (retrieval.DenseIndexClient, retrieval.SparseSearcher, orchestrator.LLMClient, retrieval.Reranker) {
	// Milvus/OpenSearch require a pre-provisioned collection/index; wiring
	// them here degrades to the in-memory BM25 sparse index and no dense
	// candidates (per the retrieval service's documented degradation
	// contract) rather than attempting schema creation at startup.
	var dense retrieval.DenseIndexClient
	var sparse retrieval.SparseSearcher

	if cfg.LLM.BaseURL == "" {
		return dense, sparse, nil, nil
	}

	serving, err := common.NewGRPCServingClient([]string{cfg.LLM.BaseURL}, logger)
	if err != nil {
		logger.Warn("LLM serving backend unavailable, non-emergency answers degrade to evidence-only responses", logging.Err(err))
		return dense, sparse, nil, nil
	}

	chatClient := llm.NewChatClient(serving, cfg.LLM.Model)
	reranker := llm.NewRerankerClient(serving, cfg.LLM.Model, 32)
	return dense, sparse, chatClient, reranker
}

func buildTenantMiddleware(cfg *config.Config, logger logging.Logger) func(http.Handler) http.Handler {
	if !cfg.Multitenancy.EnableRLS {
		return nil
	}
	header := cfg.Multitenancy.TenantHeader
	if header == "" {
		header = "X-Tenant-ID"
	}
	return middleware.NewTenantMiddleware(middleware.TenantConfig{
		HeaderName: header,
		Required:   true,
	}, logger)
}

// bm25Adapter satisfies retrieval.SparseSearcher over the in-memory BM25
// index: bm25.Hit and retrieval.SparseHit share a field layout but are
// distinct named types, so a thin adapter is needed at the wiring seam.
type bm25Adapter struct{ idx *bm25.Index }

func (a bm25Adapter) Search(query string, topM int) []retrieval.SparseHit {
	hits := a.idx.Search(query, topM)
	out := make([]retrieval.SparseHit, len(hits))
	for i, h := range hits {
		out[i] = retrieval.SparseHit{ChunkID: h.ChunkID, Score: h.Score}
	}
	return out
}

// emptyChunkStore is the default ChunkStore when no corpus has been loaded
// into the process: every lookup reports a miss rather than panicking, so
// dense/sparse hydration degrades to "no chunk" instead of crashing.
type emptyChunkStore struct{}

func (emptyChunkStore) Get(chunkID string) (*rtypes.Chunk, bool) { return nil, false }

// pgLogger adapts logging.Logger's structured Field-based signature onto
// the postgres repositories package's keysAndValues-style Logger contract.
type pgLogger struct{ l logging.Logger }

func (p pgLogger) Debug(msg string, kv ...interface{}) { p.l.Debug(msg, toFields(kv)...) }
func (p pgLogger) Info(msg string, kv ...interface{})  { p.l.Info(msg, toFields(kv)...) }
func (p pgLogger) Warn(msg string, kv ...interface{})  { p.l.Warn(msg, toFields(kv)...) }
func (p pgLogger) Error(msg string, kv ...interface{}) { p.l.Error(msg, toFields(kv)...) }

func toFields(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, logging.Any(key, kv[i+1]))
	}
	return fields
}

package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds all application metrics, grouped by layer.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal CounterVec
	HTTPRequestDuration HistogramVec
	HTTPRequestSize HistogramVec
	HTTPResponseSize HistogramVec
	HTTPActiveRequests GaugeVec

	// Auth Layer
	AuthAttemptsTotal CounterVec
	AuthTokenVerifyDuration HistogramVec
	AuthActiveTokens GaugeVec

	// Retrieval Layer
	RetrievalRequestsTotal CounterVec
	RetrievalDuration HistogramVec
	RetrievalHitCount HistogramVec
	RetrievalSourceFallback CounterVec
	RerankerDuration HistogramVec

	// Precedence Layer
	PrecedenceScore HistogramVec
	PrecedenceA1FloorApplied CounterVec
	PrecedenceSOCGuardFired CounterVec

	// Safety Layer
	SafetyWarningsTotal CounterVec
	SafetyEmergencyTotal CounterVec
	SafetyReviewRequiredRate GaugeVec

	// Coding Layer
	CodingBundlesTotal CounterVec
	CodingSuppressionsTotal CounterVec
	CodingNCCIWarningsTotal CounterVec
	CodingLowConfidenceRate GaugeVec

	// LLM Layer
	LLMRequestsTotal CounterVec
	LLMRequestDuration HistogramVec
	LLMTokensUsed CounterVec
	LLMCacheHitRate GaugeVec

	// Cache Layer
	CacheHitsTotal CounterVec
	CacheMissesTotal CounterVec

	// Infrastructure Layer
	DBConnectionPoolSize GaugeVec
	DBConnectionPoolActive GaugeVec
	DBQueryDuration HistogramVec
	MessageQueueDepth GaugeVec
	MessageProcessDuration HistogramVec

	// System Health
	ServiceUptime GaugeVec
	HealthCheckStatus GaugeVec
	ErrorsTotal CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultRetrievalBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5}
	DefaultLLMDurationBuckets   = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
	DefaultSizeBuckets          = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
	DefaultDBDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultPrecedenceBuckets    = []float64{0, .1, .2, .3, .4, .5, .6, .7, .8, .9, 1}
	DefaultRetrievalHitsBuckets = []float64{0, 1, 5, 10, 30, 60, 100}
)

// NewAppMetrics registers all metrics and returns an AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPRequestSize = collector.RegisterHistogram("http_request_size_bytes", "HTTP request size", DefaultSizeBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Auth
	m.AuthAttemptsTotal = collector.RegisterCounter("auth_attempts_total", "Authentication attempts", "result", "failure_reason")
	m.AuthTokenVerifyDuration = collector.RegisterHistogram("auth_token_verify_duration_seconds", "Token verification duration", DefaultHTTPDurationBuckets, "method")
	m.AuthActiveTokens = collector.RegisterGauge("auth_active_tokens", "Active tokens (introspected)", "token_type")

	// Retrieval
	m.RetrievalRequestsTotal = collector.RegisterCounter("retrieval_requests_total", "Hybrid retrieval requests", "classification", "status")
	m.RetrievalDuration = collector.RegisterHistogram("retrieval_duration_seconds", "Hybrid retrieval duration", DefaultRetrievalBuckets, "source")
	m.RetrievalHitCount = collector.RegisterHistogram("retrieval_hit_count", "Number of merged hits returned before top-k truncation", DefaultRetrievalHitsBuckets, "classification")
	m.RetrievalSourceFallback = collector.RegisterCounter("retrieval_source_fallback_total", "Times a retrieval source degraded and fell back", "source", "reason")
	m.RerankerDuration = collector.RegisterHistogram("reranker_duration_seconds", "Cross-encoder reranker batch duration", DefaultRetrievalBuckets, "model")

	// Precedence
	m.PrecedenceScore = collector.RegisterHistogram("precedence_score", "Computed precedence score distribution", DefaultPrecedenceBuckets, "domain")
	m.PrecedenceA1FloorApplied = collector.RegisterCounter("precedence_a1_floor_applied_total", "Times the A1 recency floor was applied", "domain")
	m.PrecedenceSOCGuardFired = collector.RegisterCounter("precedence_soc_guard_fired_total", "Times the standard-of-care guard overrode a naive precedence ordering", "domain")

	// Safety
	m.SafetyWarningsTotal = collector.RegisterCounter("safety_warnings_total", "Safety warnings issued", "stage", "reason")
	m.SafetyEmergencyTotal = collector.RegisterCounter("safety_emergency_total", "Emergency fast-path activations", "emergency_type")
	m.SafetyReviewRequiredRate = collector.RegisterGauge("safety_review_required_rate", "Rolling fraction of responses flagged review_required", "classification")

	// Coding
	m.CodingBundlesTotal = collector.RegisterCounter("coding_bundles_total", "Code bundles produced", "status")
	m.CodingSuppressionsTotal = collector.RegisterCounter("coding_suppressions_total", "Codes suppressed by NCCI/bundling rules", "code", "reason")
	m.CodingNCCIWarningsTotal = collector.RegisterCounter("coding_ncci_warnings_total", "NCCI edit warnings raised", "pair")
	m.CodingLowConfidenceRate = collector.RegisterGauge("coding_low_confidence_rate", "Rolling fraction of notes producing zero confident code lines", "kb_version")

	// LLM
	m.LLMRequestsTotal = collector.RegisterCounter("llm_requests_total", "LLM synthesis requests total", "model", "operation", "status")
	m.LLMRequestDuration = collector.RegisterHistogram("llm_request_duration_seconds", "LLM synthesis request duration", DefaultLLMDurationBuckets, "model", "operation")
	m.LLMTokensUsed = collector.RegisterCounter("llm_tokens_total", "LLM tokens used", "model", "direction")
	m.LLMCacheHitRate = collector.RegisterGauge("llm_cache_hit_rate", "LLM response cache hit rate", "model")

	// Cache
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	// Infrastructure
	m.DBConnectionPoolSize = collector.RegisterGauge("db_pool_size", "Database connection pool size", "db")
	m.DBConnectionPoolActive = collector.RegisterGauge("db_pool_active", "Database active connections", "db")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.MessageQueueDepth = collector.RegisterGauge("mq_depth", "Message queue depth", "queue")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "queue", "message_type")

	// System Health
	m.ServiceUptime = collector.RegisterGauge("service_uptime_seconds", "Service uptime", "service")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type", "severity")

	return m
}

// RegisterAppMetrics is an alias for NewAppMetrics.
func RegisterAppMetrics(collector MetricsCollector) *AppMetrics {
	return NewAppMetrics(collector)
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

func RecordAuthAttempt(metrics *AppMetrics, success bool, failureReason string, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(result, failureReason).Inc()
	metrics.AuthTokenVerifyDuration.WithLabelValues("local").Observe(duration.Seconds())
}

func RecordRetrieval(metrics *AppMetrics, classification, source string, success bool, duration time.Duration, hitCount int) {
	status := "ok"
	if !success {
		status = "error"
	}
	metrics.RetrievalRequestsTotal.WithLabelValues(classification, status).Inc()
	metrics.RetrievalDuration.WithLabelValues(source).Observe(duration.Seconds())
	metrics.RetrievalHitCount.WithLabelValues(classification).Observe(float64(hitCount))
}

func RecordSafetyWarning(metrics *AppMetrics, stage, reason string) {
	metrics.SafetyWarningsTotal.WithLabelValues(stage, reason).Inc()
}

func RecordCodingBundle(metrics *AppMetrics, status string, suppressedCodes map[string]string) {
	metrics.CodingBundlesTotal.WithLabelValues(status).Inc()
	for code, reason := range suppressedCodes {
		metrics.CodingSuppressionsTotal.WithLabelValues(code, reason).Inc()
	}
}

func RecordLLMCall(metrics *AppMetrics, model, operation string, success bool, duration time.Duration, inputTokens, outputTokens int) {
	status := "success"
	if !success {
		status = "failure"
	}
	metrics.LLMRequestsTotal.WithLabelValues(model, operation, status).Inc()
	metrics.LLMRequestDuration.WithLabelValues(model, operation).Observe(duration.Seconds())
	metrics.LLMTokensUsed.WithLabelValues(model, "input").Add(float64(inputTokens))
	metrics.LLMTokensUsed.WithLabelValues(model, "output").Add(float64(outputTokens))
}

func RecordDBQuery(metrics *AppMetrics, db, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(db, "query_error", "error").Inc()
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(metrics *AppMetrics, component, errorType, severity string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType, severity).Inc()
}

// DefaultGRPCDurationBuckets are latency buckets for the internal gRPC
// query/coding services.
var DefaultGRPCDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// GRPCMetrics holds metrics for the internal gRPC service surface.
type GRPCMetrics struct {
	UnaryRequestsTotal CounterVec
	UnaryDuration HistogramVec
	StreamRequestsTotal CounterVec
	StreamDuration HistogramVec
}

// NewGRPCMetrics registers the gRPC-layer metrics.
func NewGRPCMetrics(collector MetricsCollector) *GRPCMetrics {
	return &GRPCMetrics{
		UnaryRequestsTotal: collector.RegisterCounter("grpc_unary_requests_total", "Unary gRPC requests total", "service", "method", "code"),
		UnaryDuration: collector.RegisterHistogram("grpc_unary_duration_seconds", "Unary gRPC request duration", DefaultGRPCDurationBuckets, "service", "method"),
		StreamRequestsTotal: collector.RegisterCounter("grpc_stream_requests_total", "Streaming gRPC requests total", "service", "method", "code"),
		StreamDuration: collector.RegisterHistogram("grpc_stream_duration_seconds", "Streaming gRPC request duration", DefaultGRPCDurationBuckets, "service", "method"),
	}
}

func (g *GRPCMetrics) RecordUnaryRequest(service, method, code string, duration time.Duration) {
	g.UnaryRequestsTotal.WithLabelValues(service, method, code).Inc()
	g.UnaryDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

func (g *GRPCMetrics) RecordStreamRequest(service, method, code string, duration time.Duration) {
	g.StreamRequestsTotal.WithLabelValues(service, method, code).Inc()
	g.StreamDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/prometheus"
	"github.com/russellmiller49/ip-assist-lite/internal/interfaces/http/handlers"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree. Middleware fields hold the
// standard net/http chaining shape (func(http.Handler) http.Handler) —
// e.g. (*middleware.AuthMiddleware).Authenticate(), middleware.RequestLogging(...),
// middleware.RateLimit(...), middleware.NewTenantMiddleware(...) or
// (*middleware.CORSMiddleware).Handler — wrapped onto the gin engine so
// none of that package needs to know about gin.
type RouterConfig struct {
	// Handlers
	QueryHandler  *handlers.QueryHandler
	CodingHandler *handlers.CodingHandler
	HealthHandler *handlers.HealthHandler

	// Middleware, nil-is-skip
	AuthMiddleware      func(http.Handler) http.Handler
	CORSMiddleware      func(http.Handler) http.Handler
	LoggingMiddleware   func(http.Handler) http.Handler
	RateLimitMiddleware func(http.Handler) http.Handler
	TenantMiddleware    func(http.Handler) http.Handler

	// Infrastructure
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
// It wires global middleware, public health endpoints, and authenticated API v1
// resource groups into a single http.Handler suitable for use with http.Server.
func NewRouter(cfg RouterConfig) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	if cfg.CORSMiddleware != nil {
		r.Use(wrapMiddleware(cfg.CORSMiddleware))
	}
	if cfg.LoggingMiddleware != nil {
		r.Use(wrapMiddleware(cfg.LoggingMiddleware))
	}
	if cfg.RateLimitMiddleware != nil {
		r.Use(wrapMiddleware(cfg.RateLimitMiddleware))
	}

	// --- Public health endpoints (no auth) ---
	if cfg.HealthHandler != nil {
		r.GET("/healthz", gin.WrapF(cfg.HealthHandler.Liveness))
		r.GET("/readyz", gin.WrapF(cfg.HealthHandler.Readiness))
		r.GET("/healthz/detail", gin.WrapF(cfg.HealthHandler.Detailed))
	}

	// --- Metrics endpoint (exposed behind an internal firewall rule, not auth) ---
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	// --- API v1 (authenticated + tenant-scoped) ---
	api := r.Group("/api/v1")
	if cfg.AuthMiddleware != nil {
		api.Use(wrapMiddleware(cfg.AuthMiddleware))
	}
	if cfg.TenantMiddleware != nil {
		api.Use(wrapMiddleware(cfg.TenantMiddleware))
	}

	registerQueryRoutes(api, cfg.QueryHandler)
	registerCodingRoutes(api, cfg.CodingHandler)

	return r
}

// registerQueryRoutes mounts the hybrid-retrieval question-answering endpoint.
func registerQueryRoutes(r *gin.RouterGroup, h *handlers.QueryHandler) {
	if h == nil {
		return
	}
	r.POST("/query", gin.WrapF(h.Ask))
}

// registerCodingRoutes mounts the procedural coding endpoint.
func registerCodingRoutes(r *gin.RouterGroup, h *handlers.CodingHandler) {
	if h == nil {
		return
	}
	r.POST("/code", gin.WrapF(h.Code))
}

// wrapMiddleware adapts a standard net/http middleware function onto the
// gin engine, letting internal/interfaces/http/middleware stay framework
// agnostic while the router itself is gin-based.
func wrapMiddleware(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := false
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next = true
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if !next {
			c.Abort()
		}
	}
}

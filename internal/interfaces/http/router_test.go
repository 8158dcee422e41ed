package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/internal/interfaces/http/handlers"
)

func passThrough(header, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(header, value)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNewRouter_HealthEndpoints_NoAuth(t *testing.T) {
	cfg := RouterConfig{
		HealthHandler:  handlers.NewHealthHandler("test"),
		AuthMiddleware: passThrough("X-Auth-Applied", "true"),
		Logger:         logging.NewNopLogger(),
	}
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Auth-Applied"),
		"health endpoint must not pass through auth middleware")
}

func TestNewRouter_HealthEndpoints_Readiness(t *testing.T) {
	cfg := RouterConfig{
		HealthHandler: handlers.NewHealthHandler("test"),
		Logger:        logging.NewNopLogger(),
	}
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_APIv1_RequiresAuth(t *testing.T) {
	cfg := RouterConfig{
		QueryHandler:   handlers.NewQueryHandler(nil, nil, logging.NewNopLogger()),
		AuthMiddleware: passThrough("X-Auth-Applied", "true"),
		Logger:         logging.NewNopLogger(),
	}
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "true", rec.Header().Get("X-Auth-Applied"),
		"API v1 routes must pass through auth middleware")
}

func TestNewRouter_QueryAndCodingRoutes_Registered(t *testing.T) {
	cfg := RouterConfig{
		QueryHandler:  handlers.NewQueryHandler(nil, nil, logging.NewNopLogger()),
		CodingHandler: handlers.NewCodingHandler(nil, logging.NewNopLogger()),
		Logger:        logging.NewNopLogger(),
	}
	router := NewRouter(cfg)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/query"},
		{http.MethodPost, "/api/v1/code"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.NotEqual(t, http.StatusNotFound, rec.Code,
				"route %s %s should be registered", rt.method, rt.path)
		})
	}
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	cfg := RouterConfig{
		Logger: logging.NewNopLogger(),
	}

	assert.NotPanics(t, func() {
		router := NewRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
	})
}

func TestNewRouter_MiddlewareOrder(t *testing.T) {
	var order []string
	track := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	cfg := RouterConfig{
		CORSMiddleware:      track("cors"),
		LoggingMiddleware:   track("logging"),
		RateLimitMiddleware: track("ratelimit"),
		HealthHandler:       handlers.NewHealthHandler("test"),
		Logger:              logging.NewNopLogger(),
	}
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, []string{"cors", "logging", "ratelimit"}, order)
}

func TestNewRouter_GlobalMiddleware_Applied(t *testing.T) {
	cfg := RouterConfig{
		LoggingMiddleware: passThrough("X-Logging", "applied"),
		HealthHandler:     handlers.NewHealthHandler("test"),
		QueryHandler:      handlers.NewQueryHandler(nil, nil, logging.NewNopLogger()),
		Logger:            logging.NewNopLogger(),
	}
	router := NewRouter(cfg)

	req1 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	assert.Equal(t, "applied", rec1.Header().Get("X-Logging"))

	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/query", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	assert.Equal(t, "applied", rec2.Header().Get("X-Logging"))
}

// Package cache implements the answer result cache: a Redis-backed cache
// (TTL + singleflight.Group stampede guard, via
// internal/infrastructure/database/redis's existing GetOrSet) fronted by a
// small in-process bounded LRU of the hottest keys, so a hot query never
// pays the Redis round trip at all.
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/database/redis"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

type localEntry struct {
	response *rtypes.AnswerResponse
	expiresAt time.Time
}

// ResultCache implements internal/application/orchestrator.ResultCache.
// The local LRU is sized independently of Redis's own eviction: Redis
// owns TTL expiry and cross-process sharing, the LRU only bounds how much
// of the hot set a single process keeps resident.
type ResultCache struct {
	redis redis.Cache
	local *lru.Cache
	mu sync.Mutex // makes multi-step use of local atomic; lru.Cache itself locks only single calls
	log logging.Logger
}

// NewResultCache wires a ResultCache. localMax <= 0 defaults to 256, the
// spec's default cache.max.
func NewResultCache(redisCache redis.Cache, localMax int, log logging.Logger) (*ResultCache, error) {
	if localMax <= 0 {
		localMax = 256
	}
	local, err := lru.New(localMax)
	if err != nil {
		return nil, err
	}
	return &ResultCache{redis: redisCache, local: local, log: log}, nil
}

// GetOrSet checks the in-process LRU first, then falls through to the
// Redis-backed singleflight-guarded cache, then to loader. A Redis
// failure degrades to running loader directly rather than failing the
// request — the result cache is a latency optimization, not a
// correctness dependency.
func (c *ResultCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (*rtypes.AnswerResponse, error)) (*rtypes.AnswerResponse, error) {
	if entry, ok := c.localGet(key); ok {
		return entry, nil
	}

	var dest rtypes.AnswerResponse
	err := c.redis.GetOrSet(ctx, key, &dest, ttl, func(ctx context.Context) (interface{}, error) {
			return loader(ctx)
	})
	switch err {
	case nil:
		c.localSet(key, &dest, ttl)
		return &dest, nil
	case redis.ErrCacheMiss:
		// loader itself returned a nil response with no error; treat as
		// uncacheable and let the caller see the freshly computed nil.
		return nil, nil
	default:
		c.log.Warn("result cache unavailable, falling back to uncached pipeline", logging.Err(err))
		return loader(ctx)
	}
}

func (c *ResultCache) localGet(key string) (*rtypes.AnswerResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.local.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(localEntry)
	if time.Now().After(entry.expiresAt) {
		c.local.Remove(key)
		return nil, false
	}
	return entry.response, true
}

func (c *ResultCache) localSet(key string, response *rtypes.AnswerResponse, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local.Add(key, localEntry{response: response, expiresAt: time.Now().Add(ttl)})
}

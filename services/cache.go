package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/sfkaos/zeke-site/config"
)

// MemoryCacheSize caps the in-process cache.
const MemoryCacheSize = 512

// renderTimeout bounds one render, independent of the request that started it.
const renderTimeout = 30 * time.Second

// PageCache stores rendered output for a bounded time.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Purge drops every entry and reports how many were removed.
	Purge(ctx context.Context) (int, error)
}

// NewPageCache picks Redis when a client is given, a bounded in-process LRU otherwise.
func NewPageCache(client *redis.Client, ttl time.Duration) PageCache {
	if client != nil {
		return &redisCache{client: client, prefix: "zeke:page:"}
	}
	return NewMemoryCache(MemoryCacheSize, ttl)
}

type redisCache struct {
	client *redis.Client
	prefix string
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			config.Logger.Warnw("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		config.Logger.Warnw("cache set failed", "key", key, "error", err)
	}
}

func (c *redisCache) Purge(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// MemoryCache is a size-capped LRU whose entries expire after a fixed ttl.
// The ttl passed to Set only switches storing off when it is not positive.
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = MemoryCacheSize
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.lru.Add(key, value)
}

func (c *MemoryCache) Purge(_ context.Context) (int, error) {
	n := c.lru.Len()
	c.lru.Purge()
	return n, nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// RenderFunc produces output for a cache key. cacheable=false skips storing it.
type RenderFunc func(ctx context.Context) (body []byte, cacheable bool, err error)

// Renderer serves rendered output from the cache and collapses concurrent misses.
// Renders run detached from the caller's cancellation, and a render that started
// before Purge never writes its result back.
type Renderer struct {
	cache PageCache
	ttl   time.Duration
	group singleflight.Group

	mu         sync.RWMutex
	generation uint64
}

func NewRenderer(cache PageCache, ttl time.Duration) *Renderer {
	return &Renderer{cache: cache, ttl: ttl}
}

type renderResult struct {
	body      []byte
	cacheable bool
}

// Render returns cached output for key, or runs fn and caches its result.
// ok is false only when fn reported its output as not cacheable.
func (r *Renderer) Render(ctx context.Context, key string, fn RenderFunc) (body []byte, ok bool, err error) {
	if r.cache == nil || r.ttl <= 0 {
		return fn(ctx)
	}
	if body, ok := r.cache.Get(ctx, key); ok {
		return body, true, nil
	}

	r.mu.RLock()
	gen := r.generation
	r.mu.RUnlock()

	v, err, _ := r.group.Do(strconv.FormatUint(gen, 10)+":"+key, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), renderTimeout)
		defer cancel()

		body, cacheable, err := fn(rctx)
		if err != nil {
			return nil, err
		}
		if cacheable {
			r.store(rctx, gen, key, body)
		}
		return renderResult{body: body, cacheable: cacheable}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(renderResult)
	return res.body, res.cacheable, nil
}

func (r *Renderer) store(ctx context.Context, gen uint64, key string, body []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.generation != gen {
		config.Logger.Debugw("dropping render started before purge", "key", key)
		return
	}
	r.cache.Set(ctx, key, body, r.ttl)
}

// Purge empties the cache so the next request renders from Notion.
func (r *Renderer) Purge(ctx context.Context) (int, error) {
	if r.cache == nil {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	return r.cache.Purge(ctx)
}

// TTL returns the cache lifetime.
func (r *Renderer) TTL() time.Duration {
	return r.ttl
}

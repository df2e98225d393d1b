// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores geocode answers keyed by normalized query.
type Cache interface {
	Get(ctx context.Context, key string) (Location, bool, error)
	Set(ctx context.Context, key string, loc Location, ttl time.Duration) error
}

// CacheKey normalizes a place query.
func CacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	loc     Location
	expires time.Time
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (Location, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Location{}, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return Location{}, false, nil
	}
	return e.loc, true, nil
}

// Set implements Cache. A zero ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, loc Location, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{loc: loc}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// RedisCache shares geocode answers between runs and hosts.
type RedisCache struct {
	Client *goredis.Client
	Prefix string
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{Client: rdb, Prefix: "intel-engine:geocode:"}, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (Location, bool, error) {
	raw, err := c.Client.Get(ctx, c.Prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Location{}, false, nil
	}
	if err != nil {
		return Location{}, false, fmt.Errorf("redis get: %w", err)
	}
	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return Location{}, false, fmt.Errorf("decoding cached location: %w", err)
	}
	return loc, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, loc Location, ttl time.Duration) error {
	raw, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.Prefix+key, raw, ttl).Err()
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// CachedGeocoder consults Cache before the wrapped Geocoder. Cache
// failures are logged and never fail a lookup. Misses are not cached.
type CachedGeocoder struct {
	Geocoder Geocoder
	Cache    Cache
	TTL      time.Duration
	Logger   *zap.Logger
}

// Geocode implements Geocoder.
func (g *CachedGeocoder) Geocode(ctx context.Context, query string) (Location, error) {
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}
	key := CacheKey(query)

	loc, ok, err := g.Cache.Get(ctx, key)
	if err != nil {
		log.Warn("geocode cache read failed", zap.String("query", query), zap.Error(err))
	} else if ok {
		return loc, nil
	}

	loc, err = g.Geocoder.Geocode(ctx, query)
	if err != nil {
		return Location{}, err
	}
	if err := g.Cache.Set(ctx, key, loc, g.TTL); err != nil {
		log.Warn("geocode cache write failed", zap.String("query", query), zap.Error(err))
	}
	return loc, nil
}

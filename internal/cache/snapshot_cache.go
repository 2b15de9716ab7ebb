package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pairlens/pairlens-go/internal/models"
	"github.com/pairlens/pairlens-go/pkg/analytics"
)

// SnapshotCacheStats tracks cache performance metrics.
type SnapshotCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// RedisSnapshotCache caches MetricsSnapshots in Redis. The analytics
// provider is idempotent for identical arguments, so a cached snapshot is as
// good as a fresh one for the cache TTL.
type RedisSnapshotCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *SnapshotCacheStats
	prefix string
}

// NewRedisSnapshotCache creates a new Redis-based snapshot cache.
func NewRedisSnapshotCache(redisClient *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &SnapshotCacheStats{},
		prefix: "snapshot_cache:",
	}
}

func (c *RedisSnapshotCache) key(assetA, assetB string, atEpochMillis int64, betaWindowDays, zScoreWindowDays int) string {
	return fmt.Sprintf("%s%s:%s:%d:%dd_%dd", c.prefix, assetA, assetB, atEpochMillis, betaWindowDays, zScoreWindowDays)
}

// Get retrieves a cached snapshot. The boolean is false on a miss or any
// Redis error; cache failures never surface to the sweep.
func (c *RedisSnapshotCache) Get(ctx context.Context, assetA, assetB string, atEpochMillis int64, betaWindowDays, zScoreWindowDays int) (*models.MetricsSnapshot, bool) {
	data, err := c.redis.Get(ctx, c.key(assetA, assetB, atEpochMillis, betaWindowDays, zScoreWindowDays)).Result()
	if err != nil {
		c.stats.mu.Lock()
		c.stats.Misses++
		c.stats.mu.Unlock()
		return nil, false
	}

	var snapshot models.MetricsSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		c.stats.mu.Lock()
		c.stats.Misses++
		c.stats.mu.Unlock()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return &snapshot, true
}

// Set stores a successful snapshot. Failed snapshots are never cached: a
// transient provider failure must not shadow a later success.
func (c *RedisSnapshotCache) Set(ctx context.Context, assetA, assetB string, atEpochMillis int64, betaWindowDays, zScoreWindowDays int, snapshot *models.MetricsSnapshot) {
	if snapshot == nil || snapshot.Failed() {
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}

	if err := c.redis.Set(ctx, c.key(assetA, assetB, atEpochMillis, betaWindowDays, zScoreWindowDays), data, c.ttl).Err(); err != nil {
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

// Stats returns a copy of the current cache counters.
func (c *RedisSnapshotCache) Stats() (hits, misses, sets int64) {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return c.stats.Hits, c.stats.Misses, c.stats.Sets
}

// CachingProvider decorates a MetricsProvider with the snapshot cache. A nil
// cache degrades to a pass-through.
type CachingProvider struct {
	provider analytics.MetricsProvider
	cache    *RedisSnapshotCache
}

// NewCachingProvider wraps a provider with the snapshot cache.
func NewCachingProvider(provider analytics.MetricsProvider, cache *RedisSnapshotCache) *CachingProvider {
	return &CachingProvider{
		provider: provider,
		cache:    cache,
	}
}

// GetPairMetrics serves from cache when possible and caches successful
// provider responses.
func (p *CachingProvider) GetPairMetrics(ctx context.Context, assetA, assetB string, atEpochMillis int64, betaWindowDays, zScoreWindowDays int) (*models.MetricsSnapshot, error) {
	if p.cache != nil {
		if snapshot, ok := p.cache.Get(ctx, assetA, assetB, atEpochMillis, betaWindowDays, zScoreWindowDays); ok {
			return snapshot, nil
		}
	}

	snapshot, err := p.provider.GetPairMetrics(ctx, assetA, assetB, atEpochMillis, betaWindowDays, zScoreWindowDays)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		p.cache.Set(ctx, assetA, assetB, atEpochMillis, betaWindowDays, zScoreWindowDays, snapshot)
	}

	return snapshot, nil
}

// CacheHits reports how many provider calls were avoided.
func (p *CachingProvider) CacheHits() int64 {
	if p.cache == nil {
		return 0
	}
	hits, _, _ := p.cache.Stats()
	return hits
}

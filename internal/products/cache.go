package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmarroquin/storefront-backend/pkg/enums"
	"github.com/dmarroquin/storefront-backend/pkg/logger"
	"github.com/dmarroquin/storefront-backend/pkg/metrics"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
	"github.com/dmarroquin/storefront-backend/pkg/redis"
)

// CatalogCache holds serialized catalog pages keyed by query shape. It is
// advisory only: every method degrades to a no-op or a miss when the cache is
// absent or failing, and callers must always be able to serve from the store.
type CatalogCache struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics *metrics.StorefrontMetrics
	logg    *logger.Logger
}

// NewCatalogCache builds the cache wrapper. A nil redis client is allowed and
// yields a cache that always misses.
func NewCatalogCache(client *redis.Client, ttl time.Duration, m *metrics.StorefrontMetrics, logg *logger.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CatalogCache{
		redis:   client,
		ttl:     ttl,
		metrics: m,
		logg:    logg,
	}
}

// Key serializes the normalized query shape into a deterministic cache key.
// Fields appear in a fixed order and parameters at their default value are
// omitted, so an omitted parameter and an explicit default produce the same key.
// Free-text values are escaped so they cannot collide with the field separators.
func (c *CatalogCache) Key(query ListQuery) string {
	query = query.Normalize()

	parts := make([]string, 0, 8)
	if query.Page != pagination.DefaultPage {
		parts = append(parts, fmt.Sprintf("page=%d", query.Page))
	}
	if query.Limit != pagination.DefaultLimit {
		parts = append(parts, fmt.Sprintf("limit=%d", query.Limit))
	}
	if query.Category != "" {
		parts = append(parts, "category="+url.QueryEscape(query.Category))
	}
	if query.Search != "" {
		parts = append(parts, "search="+url.QueryEscape(strings.ToLower(query.Search)))
	}
	if query.MinPrice != nil {
		parts = append(parts, "minPrice="+query.MinPrice.String())
	}
	if query.MaxPrice != nil {
		parts = append(parts, "maxPrice="+query.MaxPrice.String())
	}
	if query.SortBy != enums.CatalogSortCreatedAt {
		parts = append(parts, "sortBy="+string(query.SortBy))
	}
	if query.SortOrder != enums.SortOrderDesc {
		parts = append(parts, "sortOrder="+string(query.SortOrder))
	}
	if len(parts) == 0 {
		parts = append(parts, "default")
	}

	return c.redis.CatalogKey(strings.Join(parts, "|"))
}

// Get returns the cached page for the key, or (nil, false) on miss or on any
// cache failure.
func (c *CatalogCache) Get(ctx context.Context, key string) (*ListResult, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, key)
	if err != nil {
		if err != redis.Nil {
			c.metrics.IncCacheError()
			c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "catalog cache read failed: "+err.Error())
		} else {
			c.metrics.IncCacheMiss()
		}
		return nil, false
	}

	var result ListResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.metrics.IncCacheError()
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "catalog cache entry corrupt: "+err.Error())
		return nil, false
	}

	c.metrics.IncCacheHit()
	return &result, true
}

// Store writes the page under the key with the configured TTL. Failures are
// logged and swallowed.
func (c *CatalogCache) Store(ctx context.Context, key string, result *ListResult) {
	if c == nil || c.redis == nil || result == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		c.metrics.IncCacheError()
		c.logg.Warn(ctx, "catalog cache encode failed: "+err.Error())
		return
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl); err != nil {
		c.metrics.IncCacheError()
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "catalog cache write failed: "+err.Error())
	}
}

// Invalidate purges every catalog cache entry regardless of query shape.
// Coarse on purpose: a cheap rebuild beats a stale read. Cache unavailability
// here is a degraded mode, never an error for the caller.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.DelByPrefix(ctx, c.redis.CatalogKeyPrefix()); err != nil {
		c.metrics.IncCacheError()
		c.logg.Warn(ctx, "catalog cache invalidation failed: "+err.Error())
	}
}

package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"catalog-service/models"
	aws_pkg "catalog-service/pkg/aws"
	"catalog-service/services"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	CatalogCachePrefix = "catalog:v:"
	CacheVersionKey    = "catalog:version"
)

// CacheManager caches read responses in Redis. Every write bumps a single
// version counter, since a delete can cascade across all four kinds.
// A nil manager or client disables caching.
type CacheManager struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics *aws_pkg.MetricsClient
}

func NewCacheManager(redis *redis.Client, ttl time.Duration, metrics *aws_pkg.MetricsClient) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheManager{
		redis:   redis,
		ttl:     ttl,
		metrics: metrics,
	}
}

func (cm *CacheManager) enabled() bool {
	return cm != nil && cm.redis != nil
}

// Lookup returns the cached response for key along with the version it was
// read under. A zero version means the caller must not cache its result.
func (cm *CacheManager) Lookup(ctx context.Context, kind models.Kind, key string) (map[string]interface{}, int64, bool) {
	if !cm.enabled() {
		return nil, 0, false
	}

	version, err := cm.getCacheVersion(ctx)
	if err != nil || version == 0 {
		return nil, 0, false
	}

	cachedData, err := cm.redis.Get(ctx, cm.cacheKey(version, kind, key)).Result()
	if err != nil {
		cm.record(ctx, aws_pkg.MetricCacheMisses, kind)
		return nil, version, false
	}

	var response map[string]interface{}
	if err := json.Unmarshal([]byte(cachedData), &response); err != nil {
		zap.L().Warn("Failed to unmarshal cached response", zap.Error(err), zap.String("kind", string(kind)))
		return nil, version, false
	}

	cm.record(ctx, aws_pkg.MetricCacheHits, kind)
	return response, version, true
}

// SetAsync caches response under the version returned by Lookup.
func (cm *CacheManager) SetAsync(version int64, kind models.Kind, key string, response map[string]interface{}) {
	if !cm.enabled() || version == 0 {
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		jsonBytes, err := json.Marshal(response)
		if err != nil {
			zap.L().Warn("Failed to marshal response for cache", zap.Error(err))
			return
		}

		if err := cm.redis.Set(bgCtx, cm.cacheKey(version, kind, key), jsonBytes, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache response", zap.Error(err), zap.String("kind", string(kind)))
		}
	}()
}

// Invalidate invalidates all catalog caches by bumping the version
func (cm *CacheManager) Invalidate(ctx context.Context) error {
	if !cm.enabled() {
		return nil
	}

	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	zap.L().Info("Cache invalidated", zap.Int64("new_version", newVersion))
	return nil
}

func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	version, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
	if err == redis.Nil {
		// First use: seed the counter so reads have a version to key on.
		if err := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return cm.redis.Get(ctx, CacheVersionKey).Int64()
	}
	return version, err
}

func (cm *CacheManager) cacheKey(version int64, kind models.Kind, key string) string {
	return CatalogCachePrefix + strconv.FormatInt(version, 10) + ":" + string(kind) + ":" + key
}

func (cm *CacheManager) record(ctx context.Context, metric string, kind models.Kind) {
	if !cm.metrics.IsEnabled() {
		return
	}
	go cm.metrics.RecordCount(context.WithoutCancel(ctx), metric, map[string]string{"Kind": string(kind)})
}

// detailKey and listKey build the per-request part of a cache key.
func detailKey(id string) string {
	return "id:" + id
}

func listKey(q services.ListQuery) string {
	v := url.Values{}
	v.Set("id", q.ID)
	v.Set("name", q.Name)
	v.Set("slug", q.Slug)
	v.Set("categoryId", q.Parents.CategoryID)
	v.Set("subCategoryId", q.Parents.SubCategoryID)
	v.Set("brandId", q.Parents.BrandID)
	return "list:" + v.Encode()
}

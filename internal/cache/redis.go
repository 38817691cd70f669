// Package cache keeps the category list in Redis so the category endpoints do
// not hit PostgreSQL on every page load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"case-service/internal/metrics"
	"case-service/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const categoriesKey = "case:categories"

// CategoryCache is safe to use with a nil client: every lookup is a miss and
// writes are dropped.
type CategoryCache struct {
	client *redis.Client
	ttl    time.Duration

	log *zap.Logger
}

// Connect dials addr (host:port or a redis:// URL). When Redis is unreachable
// the returned cache is disabled and the service continues without it.
func Connect(ctx context.Context, addr string, ttl time.Duration, log *zap.Logger) *CategoryCache {
	if addr == "" {
		log.Info("redis address not set, continuing without cache")
		return NewCategoryCache(nil, ttl, log)
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Warn("invalid redis url, continuing without cache", zap.Error(err))
			return NewCategoryCache(nil, ttl, log)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, continuing without cache", zap.Error(err))
		_ = client.Close()
		return NewCategoryCache(nil, ttl, log)
	}

	log.Info("redis connected", zap.String("addr", opts.Addr))
	return NewCategoryCache(client, ttl, log)
}

func NewCategoryCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *CategoryCache {
	return &CategoryCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (c *CategoryCache) Enabled() bool {
	return c.client != nil
}

func (c *CategoryCache) Get(ctx context.Context) ([]*models.Category, bool) {
	if c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("category cache read failed", zap.Error(err))
		}
		metrics.CategoryCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	categories := make([]*models.Category, 0)
	if err := json.Unmarshal(raw, &categories); err != nil {
		c.log.Warn("category cache entry is corrupt", zap.Error(err))
		c.Invalidate(ctx)
		metrics.CategoryCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.CategoryCacheLookups.WithLabelValues("hit").Inc()
	return categories, true
}

func (c *CategoryCache) Set(ctx context.Context, categories []*models.Category) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(categories)
	if err != nil {
		c.log.Warn("failed to encode categories", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, categoriesKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("category cache write failed", zap.Error(err))
	}
}

func (c *CategoryCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}

	if err := c.client.Del(ctx, categoriesKey).Err(); err != nil {
		c.log.Warn("category cache invalidation failed", zap.Error(err))
	}
}

func (c *CategoryCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	coursesKey    = "catalog:courses"
	servicePrefix = "catalog:service:"
)

// Source is the authoritative catalog, normally the Postgres repository.
type Source interface {
	ListCourses(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (model.Service, error)
}

// Cache is a read-through Redis cache in front of Source. Redis failures are logged and
// served from Source; a nil client disables caching.
type Cache struct {
	src    Source
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(src Source, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{src: src, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Cache) ListCourses(ctx context.Context) ([]model.Service, error) {
	var cached []model.Service
	if c.load(ctx, coursesKey, &cached) {
		return cached, nil
	}
	courses, err := c.src.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, coursesKey, courses)
	return courses, nil
}

func (c *Cache) GetService(ctx context.Context, id string) (model.Service, error) {
	var cached model.Service
	if c.load(ctx, servicePrefix+id, &cached) {
		return cached, nil
	}
	svc, err := c.src.GetService(ctx, id)
	if err != nil {
		return model.Service{}, err
	}
	c.store(ctx, servicePrefix+id, svc)
	return svc, nil
}

func (c *Cache) load(ctx context.Context, key string, dst any) bool {
	if c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("catalog cache entry corrupt", "key", key, "err", err)
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "err", err)
	}
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"qrlinkr/internal/models"

	"github.com/redis/go-redis/v9"
)

// LinkCache is a read-through cache of slug lookups. A nil client disables it;
// every redis failure degrades to a miss.
type LinkCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	// settleDelay is when Invalidate deletes the key a second time.
	settleDelay time.Duration
}

func NewLinkCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *LinkCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LinkCache{rdb: rdb, ttl: ttl, logger: logger, settleDelay: 500 * time.Millisecond}
}

func cacheKey(slug string) string {
	return "link:" + slug
}

func (c *LinkCache) enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *LinkCache) Get(ctx context.Context, slug string) (*models.Link, bool) {
	if !c.enabled() {
		return nil, false
	}
	val, err := c.rdb.Get(ctx, cacheKey(slug)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("Link cache read failed", "slug", slug, "error", err)
		}
		return nil, false
	}
	var link models.Link
	if err := json.Unmarshal(val, &link); err != nil {
		c.logger.Warn("Discarding malformed cache entry", "slug", slug, "error", err)
		return nil, false
	}
	return &link, true
}

func (c *LinkCache) Set(ctx context.Context, link *models.Link) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(link)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(link.Slug), data, c.ttl).Err(); err != nil {
		c.logger.Debug("Link cache write failed", "slug", link.Slug, "error", err)
	}
}

// Invalidate deletes the entry now and again after settleDelay. A lookup that
// read the row before the write may still call Set afterwards; the second
// delete bounds how long that stale entry survives.
func (c *LinkCache) Invalidate(ctx context.Context, slug string) {
	if !c.enabled() {
		return
	}
	c.del(ctx, slug)
	time.AfterFunc(c.settleDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		c.del(ctx, slug)
	})
}

func (c *LinkCache) del(ctx context.Context, slug string) {
	if err := c.rdb.Del(ctx, cacheKey(slug)).Err(); err != nil {
		c.logger.Warn("Link cache invalidation failed", "slug", slug, "error", err)
	}
}

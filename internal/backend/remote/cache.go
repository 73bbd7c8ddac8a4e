package remote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/dailytodo/internal/backend"
	"github.com/sandeepkv93/dailytodo/internal/model"
)

// Cache wraps a remote backend with a Redis read-through cache. Redis
// failures never fail a call; they only bypass the cache.
type Cache struct {
	base  backend.Backend
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(base backend.Backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("remote.NewCache: base backend is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) Name() string { return c.base.Name() }

func (c *Cache) LoadSnapshot(ctx context.Context, userID string, date model.CalendarDate) (model.Snapshot, error) {
	key := snapshotCacheKey(userID, date)
	if snap, ok := c.loadFromCache(ctx, key); ok {
		return snap, nil
	}
	snap, err := c.base.LoadSnapshot(ctx, userID, date)
	if err != nil {
		return model.Snapshot{}, err
	}
	c.store(ctx, key, snap)
	return snap, nil
}

func (c *Cache) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	key := snapshotCacheKey(snap.UserID, snap.LastSavedDate)
	if err := c.base.SaveSnapshot(ctx, snap); err != nil {
		c.evict(ctx, key)
		return err
	}
	c.store(ctx, key, snap)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context, key string) (model.Snapshot, bool) {
	if c.redis == nil {
		return model.Snapshot{}, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return model.Snapshot{}, false
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil || snap.Validate() != nil {
		_ = c.redis.Del(ctx, key).Err()
		return model.Snapshot{}, false
	}
	if snap.Tasks == nil {
		snap.Tasks = model.TaskCollection{}
	}
	return snap, true
}

func (c *Cache) store(ctx context.Context, key string, snap model.Snapshot) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}

func snapshotCacheKey(userID string, date model.CalendarDate) string {
	return "dailytodo:snapshot:" + DocumentKey(userID, date)
}

// Package location keeps the latest GPS fix per vehicle run behind an
// explicit cache with a bounded lifetime. Positions are persisted first and
// the cache is populated on write and on read-through misses.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"smart-bus/internal/data/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 5 * time.Minute

// Cache returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, runID uuid.UUID) (*entity.Position, error)
	Set(ctx context.Context, pos *entity.Position) error
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func positionKey(runID uuid.UUID) string {
	return "position:" + runID.String()
}

func (c *RedisCache) Get(ctx context.Context, runID uuid.UUID) (*entity.Position, error) {
	raw, err := c.rdb.Get(ctx, positionKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached position %s: %w", runID, err)
	}

	var pos entity.Position
	if err := json.Unmarshal(raw, &pos); err != nil {
		return nil, fmt.Errorf("decode cached position %s: %w", runID, err)
	}
	return &pos, nil
}

func (c *RedisCache) Set(ctx context.Context, pos *entity.Position) error {
	raw, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("encode position: %w", err)
	}
	if err := c.rdb.Set(ctx, positionKey(pos.RunID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache position %s: %w", pos.RunID, err)
	}
	return nil
}

type memEntry struct {
	pos     entity.Position
	expires time.Time
}

// MemoryCache is the single-process fallback when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[uuid.UUID]memEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *MemoryCache) Get(_ context.Context, runID uuid.UUID) (*entity.Position, error) {
	c.mu.RLock()
	e, ok := c.entries[runID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !c.now().Before(e.expires) {
		c.mu.Lock()
		if cur, ok := c.entries[runID]; ok && cur.expires.Equal(e.expires) {
			delete(c.entries, runID)
		}
		c.mu.Unlock()
		return nil, nil
	}
	pos := e.pos
	return &pos, nil
}

func (c *MemoryCache) Set(_ context.Context, pos *entity.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pos.RunID] = memEntry{pos: *pos, expires: c.now().Add(c.ttl)}
	return nil
}

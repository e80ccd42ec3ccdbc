package cache

import (
	"context"
	"sync"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

// Entry wraps a cached snapshot with its write and expiry instants. Entries
// are created on write and replaced only by overwrite, never mutated in place.
type Entry struct {
	Value     model.RateSnapshot `json:"value"`
	CachedAt  time.Time          `json:"cached_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// MemoryCache is an in-process scope-keyed snapshot cache with passive TTL.
// Expired entries are not evicted: GetFresh stops returning them while
// GetStale keeps serving the most recent write, so the service can degrade
// gracefully when the feed is down. Reclamation happens only by overwrite.
type MemoryCache struct {
	storage map[model.Scope]Entry
	mutex   sync.RWMutex
	now     func() time.Time
	log     *logger.Logger
}

func NewMemoryCache(log *logger.Logger) *MemoryCache {
	return &MemoryCache{
		storage: make(map[model.Scope]Entry),
		now:     time.Now,
		log:     log,
	}
}

// NewMemoryCacheWithClock is for tests that need to move time.
func NewMemoryCacheWithClock(log *logger.Logger, now func() time.Time) *MemoryCache {
	c := NewMemoryCache(log)
	c.now = now
	return c
}

func (c *MemoryCache) Set(ctx context.Context, scope model.Scope, snapshot model.RateSnapshot, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	c.storage[scope] = Entry{
		Value:     snapshot,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	c.log.Debug("Cache set", "scope", scope, "ttl", ttl)
	return nil
}

func (c *MemoryCache) GetFresh(ctx context.Context, scope model.Scope) (*model.RateSnapshot, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, found := c.storage[scope]
	if !found {
		c.log.Debug("Cache miss", "scope", scope)
		return nil, nil
	}
	if !c.now().Before(entry.ExpiresAt) {
		c.log.Debug("Cache entry expired", "scope", scope)
		return nil, nil
	}

	c.log.Debug("Cache hit", "scope", scope)
	snapshot := entry.Value
	return &snapshot, nil
}

func (c *MemoryCache) GetStale(ctx context.Context, scope model.Scope) (*model.RateSnapshot, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, found := c.storage[scope]
	if !found {
		return nil, nil
	}
	snapshot := entry.Value
	return &snapshot, nil
}

func (c *MemoryCache) IsFresh(ctx context.Context, scope model.Scope) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, found := c.storage[scope]
	if !found {
		return false, nil
	}
	return c.now().Before(entry.ExpiresAt), nil
}

func (c *MemoryCache) Clear(ctx context.Context, scopes ...model.Scope) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(scopes) == 0 {
		c.storage = make(map[model.Scope]Entry)
		c.log.Debug("Cache cleared")
		return nil
	}
	for _, scope := range scopes {
		delete(c.storage, scope)
		c.log.Debug("Cache entry cleared", "scope", scope)
	}
	return nil
}

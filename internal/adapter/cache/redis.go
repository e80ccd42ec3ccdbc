package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

// RedisCache stores entries as JSON in redis, keyed by scope. It deliberately
// does not use redis TTLs: the stale tier must survive expiry, so freshness
// is judged from the entry's ExpiresAt at read time, exactly as in the
// memory implementation.
type RedisCache struct {
	client *redis.Client
	prefix string
	now    func() time.Time
	log    *logger.Logger
}

func NewRedisCache(client *redis.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "currency-rates:",
		now:    time.Now,
		log:    log,
	}
}

func (c *RedisCache) key(scope model.Scope) string {
	return c.prefix + scope.String()
}

func (c *RedisCache) Set(ctx context.Context, scope model.Scope, snapshot model.RateSnapshot, ttl time.Duration) error {
	now := c.now()
	entry := Entry{
		Value:     snapshot,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling cache entry: %w", err)
	}

	if err := c.client.Set(ctx, c.key(scope), data, 0).Err(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	c.log.Debug("Cache set", "scope", scope, "ttl", ttl)
	return nil
}

func (c *RedisCache) entry(ctx context.Context, scope model.Scope) (*Entry, error) {
	data, err := c.client.Get(ctx, c.key(scope)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		// A corrupt entry degrades to a miss rather than poisoning reads.
		c.log.Warn("Dropping undecodable cache entry", "scope", scope, "error", err)
		return nil, nil
	}
	return &entry, nil
}

func (c *RedisCache) GetFresh(ctx context.Context, scope model.Scope) (*model.RateSnapshot, error) {
	entry, err := c.entry(ctx, scope)
	if err != nil || entry == nil {
		return nil, err
	}
	if !c.now().Before(entry.ExpiresAt) {
		c.log.Debug("Cache entry expired", "scope", scope)
		return nil, nil
	}
	c.log.Debug("Cache hit", "scope", scope)
	return &entry.Value, nil
}

func (c *RedisCache) GetStale(ctx context.Context, scope model.Scope) (*model.RateSnapshot, error) {
	entry, err := c.entry(ctx, scope)
	if err != nil || entry == nil {
		return nil, err
	}
	return &entry.Value, nil
}

func (c *RedisCache) IsFresh(ctx context.Context, scope model.Scope) (bool, error) {
	entry, err := c.entry(ctx, scope)
	if err != nil || entry == nil {
		return false, err
	}
	return c.now().Before(entry.ExpiresAt), nil
}

func (c *RedisCache) Clear(ctx context.Context, scopes ...model.Scope) error {
	if len(scopes) == 0 {
		keys, err := c.client.Keys(ctx, c.prefix+"*").Result()
		if err != nil {
			return fmt.Errorf("listing cache keys: %w", err)
		}
		if len(keys) == 0 {
			return nil
		}
		return c.client.Del(ctx, keys...).Err()
	}

	keys := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		keys = append(keys, c.key(scope))
	}
	return c.client.Del(ctx, keys...).Err()
}

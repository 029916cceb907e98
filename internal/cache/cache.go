// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin JSON cache over Redis for read-heavy lookups (daily
// status, transaction history). A nil *Cache is valid and behaves as a
// permanent miss, so a missing Redis configuration degrades gracefully.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing Redis client. A nil client yields a nil Cache.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

// Get fetches a key and unmarshals it into dest. Returns false on miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// Set stores a value under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, c.ttl).Err()
}

// Delete removes keys. Used to invalidate a user's cached reads after a
// wallet or budget mutation.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeleteByPrefix removes every key under prefix. History pages are cached
// per (limit, offset), so invalidating a user means sweeping their whole
// history keyspace, not one known key.
func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if c == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Delete(ctx, keys...)
}

// DailyStatusKey caches GetDailyStatus per user and date.
func DailyStatusKey(userID int64, date time.Time) string {
	return fmt.Sprintf("daily_status:%d:%s", userID, date.UTC().Format("2006-01-02"))
}

// DailyStatusKeyNow is DailyStatusKey for the current UTC date.
func DailyStatusKeyNow(userID int64) string {
	return DailyStatusKey(userID, time.Now())
}

// HistoryPrefix namespaces all of a user's cached history pages, so a
// balance mutation can drop them in one sweep.
func HistoryPrefix(userID int64) string {
	return fmt.Sprintf("tx_history:%d:", userID)
}

// HistoryKey caches one page of a user's transaction history.
func HistoryKey(userID int64, limit, offset int) string {
	return fmt.Sprintf("%s%d:%d", HistoryPrefix(userID), limit, offset)
}

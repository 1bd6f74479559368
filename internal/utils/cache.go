package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // redis.Nil comparison
	"strconv"       // Key building
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache is a JSON read cache over Redis. A nil *Cache or a Cache without a
// client always misses, so handlers work with caching switched off.
type Cache struct {
	rdb redis.Cmdable // Redis client
	ttl time.Duration // Entry lifetime
}

// NewCache wraps a Redis client with a default TTL
func NewCache(rdb redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

// Get retrieves a value and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// Set stores value as JSON with the default TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if !c.enabled() {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Delete removes keys
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeletePrefix removes every key starting with prefix
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	if !c.enabled() {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Delete(ctx, keys...)
}

// InvalidateUser drops the cached ledger, history pages and vouchers of one user
func (c *Cache) InvalidateUser(ctx context.Context, userID uint) error {
	if err := c.Delete(ctx, LedgerKey(userID), VouchersKey(userID)); err != nil {
		return err
	}
	return c.DeletePrefix(ctx, historyPrefix(userID))
}

// LedgerKey caches GET /rewards/ledger
func LedgerKey(userID uint) string {
	return "ledger:user:" + strconv.FormatUint(uint64(userID), 10)
}

// VouchersKey caches GET /rewards/vouchers
func VouchersKey(userID uint) string {
	return "vouchers:user:" + strconv.FormatUint(uint64(userID), 10)
}

// HistoryKey caches one page of GET /rewards/history
func HistoryKey(userID uint, page, pageSize int) string {
	return historyPrefix(userID) + "page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
}

func historyPrefix(userID uint) string {
	return "drawhistory:user:" + strconv.FormatUint(uint64(userID), 10) + ":"
}

// PrizeTableKey caches GET /games/:mode/prizes
func PrizeTableKey(mode string) string {
	return "prizes:mode:" + mode
}

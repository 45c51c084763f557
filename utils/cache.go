package utils

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var cacheClient *redis.Client

// InitCache connects the shared Redis client. The cache is optional: when
// REDIS_ADDR is unset (or the connection fails) every cache call becomes a
// no-op and reads fall through to the database.
func InitCache() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, response caching disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable at %s, caching disabled: %v", addr, err)
		return
	}
	cacheClient = client
}

// CacheGetJSON loads a cached value into dest. Returns false on miss or when
// caching is disabled.
func CacheGetJSON(ctx context.Context, key string, dest interface{}) bool {
	if cacheClient == nil {
		return false
	}
	raw, err := cacheClient.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// CacheSetJSON stores a value with a TTL; failures are logged and ignored.
func CacheSetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if cacheClient == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := cacheClient.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("cache set failed for %s: %v", key, err)
	}
}

// CacheInvalidate drops keys after a mutation that makes them stale.
func CacheInvalidate(ctx context.Context, keys ...string) {
	if cacheClient == nil || len(keys) == 0 {
		return
	}
	cacheClient.Del(ctx, keys...)
}

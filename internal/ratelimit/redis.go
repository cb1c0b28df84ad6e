package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisHitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisStore implements a fixed-window counter store backed by Redis.
// The window is enforced by the key TTL set on the first hit.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: strings.TrimSpace(prefix),
	}
}

// Hit records a request against the key's current window.
// Redis counts rejected hits too; reported TotalHits is capped at the limit.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" || s == nil || s.client == nil {
		return Result{Allowed: true}, nil
	}
	if window <= 0 {
		return Result{}, errors.New("rate limit redis: non-positive window")
	}

	res, errEval := redisHitScript.Run(ctx, s.client, []string{s.buildKey(key)}, window.Milliseconds()).Result()
	if errEval != nil {
		return Result{}, errEval
	}
	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return Result{}, errors.New("rate limit redis: unexpected response shape")
	}
	count, okCount := toInt64(values[0])
	ttlMs, okTTL := toInt64(values[1])
	if !okCount || !okTTL {
		return Result{}, errors.New("rate limit redis: unexpected response type")
	}

	reset := now.Add(window)
	if ttlMs > 0 {
		reset = now.Add(time.Duration(ttlMs) * time.Millisecond)
	}
	if count > int64(limit) {
		return Result{Allowed: false, Remaining: 0, Reset: reset, TotalHits: limit}, nil
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Remaining: remaining, Reset: reset, TotalHits: int(count)}, nil
}

func (s *RedisStore) buildKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func toInt64(v interface{}) (int64, bool) {
	switch value := v.(type) {
	case int64:
		return value, true
	case int:
		return int64(value), true
	case uint64:
		return int64(value), true
	default:
		return 0, false
	}
}

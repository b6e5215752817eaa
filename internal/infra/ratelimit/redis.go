package ratelimit

import (
	"context"
	"errors"
	"time"

	"medsupply/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Counter increment and expiry set must be atomic, so both run in one
// script. The reply is {count, remaining ttl in millis}.
const fixedWindowSrc = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`

var fixedWindowScript = redis.NewScript(fixedWindowSrc)

// RedisLimiter counts requests per key in redis so the window is
// shared across daemon instances.
type RedisLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisLimiter(addr, password string, db int, now func() time.Time) (domain.RateLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if now == nil {
		now = time.Now
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &RedisLimiter{rdb: rdb, now: now}, nil
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	reply, err := fixedWindowScript.Run(ctx, r.rdb, []string{key}, windowMillis).Result()
	if err != nil {
		return domain.RateLimitDecision{}, err
	}
	current, ttlMillis, err := decodeWindowReply(reply)
	if err != nil {
		return domain.RateLimitDecision{}, err
	}

	decision := domain.RateLimitDecision{
		Allowed:   current <= int64(limit),
		Limit:     limit,
		Remaining: max(limit-int(current), 0),
		ResetAt:   r.now(),
	}
	if ttlMillis > 0 {
		decision.ResetAt = decision.ResetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	return decision, nil
}

func decodeWindowReply(reply any) (current, ttlMillis int64, err error) {
	values, ok := reply.([]any)
	if !ok || len(values) < 2 {
		return 0, 0, errors.New("unexpected redis rate limit reply")
	}
	current, ok = values[0].(int64)
	if !ok {
		return 0, 0, errors.New("invalid redis counter reply")
	}
	ttlMillis, _ = values[1].(int64)
	return current, ttlMillis, nil
}

package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript keeps one sorted-set member per accepted attempt, scored
// by its time in milliseconds. It returns {allowed, remaining, resetAtMs}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
	local count = redis.call('ZCARD', key)
	local allowed = 0
	if count < limit then
		redis.call('ZADD', key, now, ARGV[4])
		count = count + 1
		allowed = 1
	end
	redis.call('PEXPIRE', key, window)

	local reset = now + window
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	if oldest[2] then
		reset = tonumber(oldest[2]) + window
	end
	return {allowed, limit - count, reset}
`)

const (
	keyPrefix          = "ratelimit"
	maintenanceCounter = "maintenance:count"
	maintenanceLast    = "maintenance:last"
)

// RedisLimiter is a sliding-window limiter shared by every server instance.
type RedisLimiter struct {
	rdb   *redis.Client
	rules map[Bucket]Rule
	now   func() time.Time
}

func NewRedis(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, rules: DefaultRules(), now: time.Now}
}

func (l *RedisLimiter) key(bucket Bucket, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, bucket, identifier)
}

func (l *RedisLimiter) Allow(ctx context.Context, bucket Bucket, identifier string) (Decision, error) {
	r, err := ruleFor(l.rules, bucket)
	if err != nil {
		return Decision{}, err
	}
	now := l.now().UnixMilli()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, l.rdb,
		[]string{l.key(bucket, identifier)},
		now, r.Window.Milliseconds(), r.Limit, member,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit check returned %d values", len(res))
	}
	return Decision{
		Allowed:   res[0] == 1,
		Limit:     r.Limit,
		Remaining: int(max(res[1], 0)),
		ResetAt:   time.UnixMilli(res[2]),
	}, nil
}

func (l *RedisLimiter) Status(ctx context.Context) (Status, error) {
	st := Status{Backend: "redis"}
	start := l.now()
	if err := l.rdb.Ping(ctx).Err(); err != nil {
		st.Message = err.Error()
		return st, nil
	}
	st.Connected = true
	st.LatencyMs = l.now().Sub(start).Milliseconds()
	st.Message = "connected"

	count, err := l.rdb.Get(ctx, maintenanceCounter).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return st, err
	}
	st.MaintenanceRuns = count

	last, err := l.rdb.Get(ctx, maintenanceLast).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return st, err
	}
	if err == nil {
		t := time.UnixMilli(last).UTC()
		st.LastMaintenance = &t
	}
	return st, nil
}

func (l *RedisLimiter) Maintain(ctx context.Context) (Status, error) {
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, maintenanceCounter)
		pipe.Set(ctx, maintenanceLast, l.now().UnixMilli(), 0)
		return nil
	})
	if err != nil {
		return Status{Backend: "redis", Message: err.Error()}, fmt.Errorf("maintenance failed: %w", err)
	}
	return l.Status(ctx)
}

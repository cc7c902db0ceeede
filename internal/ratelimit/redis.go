package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFixedWindow shares one fixed window across processes using
// INCR + EXPIRE. Window boundaries are aligned to wall-clock epochs,
// so the burst characteristic matches the in-memory limiter.
type RedisFixedWindow struct {
	rdb    *redis.Client
	prefix string

	maxAttempts int
	window      time.Duration

	now func() time.Time
}

func NewRedisFixedWindow(rdb *redis.Client, prefix string, maxAttempts int, window time.Duration) *RedisFixedWindow {
	if prefix == "" {
		prefix = "rl:sub:"
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RedisFixedWindow{
		rdb:         rdb,
		prefix:      prefix,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

var _ Limiter = (*RedisFixedWindow)(nil)

// Allow fails open: when Redis is unreachable the attempt is allowed and
// the error is returned for the caller to log.
func (l *RedisFixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		key = "unknown"
	}

	epoch := l.now().Unix() / int64(l.window/time.Second)
	rkey := l.prefix + key + ":" + strconv.FormatInt(epoch, 10)

	// INCR and set expiry 2*window (safety)
	pipe := l.rdb.Pipeline()
	cnt := pipe.Incr(ctx, rkey)
	pipe.Expire(ctx, rkey, l.window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}

	return cnt.Val() <= int64(l.maxAttempts), nil
}

func (l *RedisFixedWindow) Reset(ctx context.Context) error {
	iter := l.rdb.Scan(ctx, 0, l.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := l.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

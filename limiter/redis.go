// Package limiter provides rate limiters shared between processes.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ZaguanLabs/treelai"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window rate limiter backed by Redis. Every
// process that points at the same Redis and key prefix shares one budget
// of Limit requests per Window.
type RedisLimiter struct {
	client    *redis.Client
	limit     int64
	window    time.Duration
	keyPrefix string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// RedisConfig holds configuration for the Redis limiter.
type RedisConfig struct {
	URL       string        // Redis connection URL (e.g., "redis://localhost:6379")
	Limit     int           // Requests allowed per window (default: 60)
	Window    time.Duration // Window length (default: 1 minute)
	KeyPrefix string        // Prefix for all keys (default: "treelai:")
}

// NewRedisLimiter creates a new Redis limiter with the given configuration.
func NewRedisLimiter(cfg RedisConfig) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisLimiterFromClient(client, cfg.Limit, cfg.Window, cfg.KeyPrefix), nil
}

// NewRedisLimiterFromClient creates a RedisLimiter from an existing Redis client.
func NewRedisLimiterFromClient(client *redis.Client, limit int, window time.Duration, keyPrefix string) *RedisLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	if keyPrefix == "" {
		keyPrefix = "treelai:"
	}

	return &RedisLimiter{
		client:    client,
		limit:     int64(limit),
		window:    window,
		keyPrefix: keyPrefix,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Wait blocks until the current window has room for one more request or
// ctx is cancelled.
func (l *RedisLimiter) Wait(ctx context.Context) error {
	for {
		ok, retryIn, err := l.take(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := l.sleep(ctx, retryIn); err != nil {
			return err
		}
	}
}

// TryAcquire attempts to take one request from the current window without blocking.
func (l *RedisLimiter) TryAcquire(ctx context.Context) (bool, error) {
	ok, _, err := l.take(ctx)
	return ok, err
}

// take admits one request if the current window has room. A full window
// is only read, so callers polling a full window do not raise its count.
// Callers racing for the last slot may each increment it; the losers see a
// count above the limit and are refused.
func (l *RedisLimiter) take(ctx context.Context) (bool, time.Duration, error) {
	now := l.now()
	windowIndex := now.UnixNano() / int64(l.window)
	key := l.keyPrefix + "rl:" + strconv.FormatInt(windowIndex, 10)
	next := time.Unix(0, (windowIndex+1)*int64(l.window))

	used, err := l.client.Get(ctx, key).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, fmt.Errorf("rate limit get: %w", err)
	}
	if used >= l.limit {
		return false, next.Sub(now), nil
	}

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit incr: %w", err)
	}

	// The first request of a window owns the expiry. Keys outlive their
	// window so late readers still see the count.
	if count == 1 {
		if err := l.client.Expire(ctx, key, 2*l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	if count <= l.limit {
		return true, 0, nil
	}
	return false, next.Sub(now), nil
}

// Close closes the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// Ping tests the Redis connection.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Verify RedisLimiter implements treelai.Limiter
var _ treelai.Limiter = (*RedisLimiter)(nil)

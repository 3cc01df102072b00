package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
)

// WindowCounter counts hits per key inside a fixed window.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) WindowCounter { return &redisCounter{rdb: rdb} }

func (r *redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter is a fixed-window limiter shared by every server instance
// through Redis.
type RateLimiter struct {
	counter WindowCounter
	prefix  string
	limit   int
	window  time.Duration
	logger  *zap.SugaredLogger
}

func NewRateLimiter(counter WindowCounter, prefix string, limit int, window time.Duration, logger *zap.SugaredLogger) *RateLimiter {
	return &RateLimiter{counter: counter, prefix: prefix, limit: limit, window: window, logger: logger}
}

// MiddlewareByKey limits per key. A Redis outage lets requests through.
func (r *RateLimiter) MiddlewareByKey(keyFunc func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("%s:rl:%s", r.prefix, keyFunc(c))
		ctx, cancel := context.WithTimeout(c.UserContext(), 500*time.Millisecond)
		defer cancel()

		count, err := r.counter.Hit(ctx, key, r.window)
		if err != nil {
			r.logger.Warnw("rate limiter unavailable", "key", key, "error", err)
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", fmt.Sprint(r.limit))
		if count > int64(r.limit) {
			return apperr.ErrRateLimited
		}
		return c.Next()
	}
}

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"healthloop/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis. It returns nil when addr is empty or the
// server does not answer; every middleware here treats a nil client as
// "Redis not configured" and keeps serving.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, falling back to in-process limits", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// RedisRateLimit implements a fixed-window limit per client IP using INCR/EXPIRE.
// Without Redis it falls back to an in-process limiter with the same budget.
// key format: rl:<name>:<window_seconds>:<ip>
func RedisRateLimit(rdb *redis.Client, name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	if rdb == nil {
		return SimpleRateLimit(maxRequests, window)
	}
	prefix := "rl:" + name + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":"

	return func(c *gin.Context) {
		key := prefix + c.ClientIP()
		if !allow(c, rdb, key, maxRequests, window, name) {
			return
		}
		c.Next()
	}
}

// UserRateLimit limits per authenticated user rather than per IP. It must run
// after JWT.
func UserRateLimit(rdb *redis.Client, name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	local := newWindowCounter(maxRequests, window)
	prefix := "rl_user:" + name + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":"

	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ident := strconv.FormatInt(userID, 10)

		if rdb == nil {
			if !local.allow(ident) {
				RLBlocked.WithLabelValues(name).Inc()
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "retry_after": int(window.Seconds())})
				return
			}
			RLRequests.WithLabelValues(name).Inc()
			c.Next()
			return
		}

		if !allow(c, rdb, prefix+ident, maxRequests, window, name) {
			return
		}
		c.Next()
	}
}

// allow increments the window counter and aborts the request when over budget.
// Redis errors fail open.
func allow(c *gin.Context, rdb *redis.Client, key string, maxRequests int, window time.Duration, endpoint string) bool {
	ctx := c.Request.Context()

	val, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		c.Header("X-RateLimit-Error", "redis-error")
		return true
	}
	if val == 1 {
		rdb.Expire(ctx, key, window)
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

	if val > int64(maxRequests) {
		RLBlocked.WithLabelValues(endpoint).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": int(window.Seconds()),
		})
		return false
	}

	RLRequests.WithLabelValues(endpoint).Inc()
	return true
}

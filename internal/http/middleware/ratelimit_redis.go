package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"rps_webapp/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter connects the shared Redis client used by the limiters.
// With an empty addr or a failed ping the limiters use the in-process counter.
func InitRedisRateLimiter(addr, password string, db int) bool {
	if addr == "" {
		return false
	}
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limiter", "addr", addr, "error", err)
		_ = c.Close()
		return false
	}
	redisClient = c
	return true
}

// RedisClient returns the shared client, nil when Redis is not in use
func RedisClient() *redis.Client {
	return redisClient
}

func CloseRedis() {
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}

// hit increments key's fixed window. Redis errors fail open.
func hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if redisClient == nil {
		return fallbackLimiter.incr(key, window), nil
	}

	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}
	return val, nil
}

// RateLimit limits requests per client IP.
// key format: rl:<window_seconds>:<ip>
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return limit("api", maxRequests, window, func(c *gin.Context) (string, bool) {
		return "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP(), true
	})
}

// PlayRateLimit limits plays per session. Requires JWT to run first.
// key format: play_rl:<session_id>:<window_seconds>
func PlayRateLimit(maxPlays int, window time.Duration) gin.HandlerFunc {
	return limit("play", maxPlays, window, func(c *gin.Context) (string, bool) {
		sid, ok := SessionID(c)
		if !ok {
			return "", false
		}
		return "play_rl:" + sid + ":" + strconv.FormatInt(int64(window.Seconds()), 10), true
	})
}

func limit(scope string, max int, window time.Duration, keyFn func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := keyFn(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		label := scope + ":" + c.FullPath()
		val, err := hit(c.Request.Context(), key, window)
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max64(0, int64(max)-val), 10))

		if val > int64(max) {
			RLBlocked.WithLabelValues(label).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(label).Inc()
		c.Next()
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// fixedWindow counts a request and starts the window only when the key has
// no expiry yet, so steady traffic cannot keep pushing the reset back.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RateLimit allows maxRequests per fixed window for each client IP, counted
// in Redis. It is mounted ahead of Auth, so anonymous routes such as login
// are limited as well.
func RateLimit(redisClient *redis.Client, keyPrefix string, maxRequests int, window time.Duration) gin.HandlerFunc {
	if redisClient == nil {
		panic("Redis client cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}
	windowMS := window.Milliseconds()
	if windowMS < 1 {
		windowMS = 1
	}

	return func(c *gin.Context) {
		key := rateLimitKey(c, keyPrefix)

		count, err := fixedWindow.Run(c.Request.Context(), redisClient, []string{key}, windowMS).Int64()
		if err != nil {
			logrus.WithError(err).WithField("key", key).Error("RateLimit: Redis script failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limiting error"})
			return
		}

		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(maxRequests) {
			logrus.WithField("key", key).Debug("RateLimit: limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context, prefix string) string {
	return prefix + "ratelimit:ip:" + c.ClientIP()
}

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit caps faucet requests per client IP over a fixed window using
// Redis if available. The cooldown ledger is the real policy; this only
// absorbs bursts from scripted clients.
func RateLimit(cache *redis.Client, maxPerWindow int, window time.Duration) fiber.Handler {
	if maxPerWindow <= 0 {
		maxPerWindow = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		ip := strings.TrimSpace(c.Get("X-Real-IP"))
		if ip == "" {
			ip = c.IP()
		}
		key := "rl:faucet:" + ip
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, window)
		}
		if cnt > int64(maxPerWindow) {
			return fiber.NewError(http.StatusTooManyRequests, "too many faucet requests, try again later")
		}
		return c.Next()
	}
}

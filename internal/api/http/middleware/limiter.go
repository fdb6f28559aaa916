package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
)

// NewLimiterWithRedis is the global per-IP sliding window.
func NewLimiterWithRedis(rdb redis.UniversalClient) fiber.Handler {
	return newLimiter(rdb, 120, time.Minute)
}

// NewAuthLimiter throttles credential endpoints (login, password reset).
func NewAuthLimiter(rdb redis.UniversalClient) fiber.Handler {
	return newLimiter(rdb, 10, time.Minute)
}

func newLimiter(rdb redis.UniversalClient, max int, window time.Duration) fiber.Handler {
	storage := fiberredis.NewFromConnection(rdb)
	return limiter.New(limiter.Config{
		Storage: storage,

		// sliding window
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}

package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func rateLimitApp(t *testing.T, max int) (*fiber.App, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New()
	app.Post("/request", RateLimit(cache, max, time.Hour), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return app, mr, func() {
		cache.Close()
		mr.Close()
	}
}

func TestRateLimitBlocksAfterMax(t *testing.T) {
	app, _, cleanup := rateLimitApp(t, 3)
	defer cleanup()

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/request", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/request", nil))
	if err != nil {
		t.Fatalf("limited request: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.StatusCode)
	}
}

func TestRateLimitWindowExpires(t *testing.T) {
	app, mr, cleanup := rateLimitApp(t, 1)
	defer cleanup()

	if resp, _ := app.Test(httptest.NewRequest(fiber.MethodPost, "/request", nil)); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("first request blocked")
	}
	if resp, _ := app.Test(httptest.NewRequest(fiber.MethodPost, "/request", nil)); resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("second request not limited")
	}

	mr.FastForward(time.Hour + time.Second)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/request", nil))
	if err != nil {
		t.Fatalf("post-window request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected window reset, got %d", resp.StatusCode)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/request", RateLimit(nil, 1, time.Hour), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/request", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected pass-through, got %d", resp.StatusCode)
		}
	}
}

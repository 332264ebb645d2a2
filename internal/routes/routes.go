package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/azore-network/faucet/internal/account"
	"github.com/azore-network/faucet/internal/chain"
	"github.com/azore-network/faucet/internal/config"
	"github.com/azore-network/faucet/internal/faucet"
	"github.com/azore-network/faucet/internal/identity"
	"github.com/azore-network/faucet/internal/inflight"
	"github.com/azore-network/faucet/internal/middleware"
	"github.com/azore-network/faucet/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Chain  chain.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce infrastructure presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Chain == nil {
		return fmt.Errorf("chain client is required")
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var repo account.Repository
	if d.DB != nil {
		repo = account.NewPostgresRepository(d.DB)
	} else {
		repo = account.NewMemoryRepository()
	}

	amount, err := chain.ParseAmount(d.Cfg.FaucetAmount)
	if err != nil {
		return fmt.Errorf("parse faucet amount: %w", err)
	}

	resolver := identity.NewResolver(d.Cfg.OriginHashSalt)
	locks := inflight.NewRegistry()
	notifier := notification.NewLoggerNotifier(d.Logger)

	svc, err := faucet.NewService(repo, locks, d.Chain, resolver, notifier, d.Logger, faucet.Params{
		Amount:   amount,
		Cooldown: d.Cfg.Cooldown,
		Treasury: d.Cfg.TreasuryAddress,
	})
	if err != nil {
		return err
	}
	faucetHandler := faucet.NewHandler(svc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.RateLimit(d.Cache, d.Cfg.RateLimitPerHour, time.Hour)
	RegisterFaucetRoutes(api, faucetHandler, rateLimiter)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

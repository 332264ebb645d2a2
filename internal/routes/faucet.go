package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/azore-network/faucet/internal/faucet"
)

// RegisterFaucetRoutes mounts the faucet endpoints. The per-IP rate limiter
// only guards the disbursement route; reads stay unthrottled.
func RegisterFaucetRoutes(r fiber.Router, h *faucet.Handler, rateLimiter fiber.Handler) {
	grp := r.Group("/faucet")
	grp.Post("/request", rateLimiter, h.Request)
	grp.Get("/status/:walletAddress", h.Status)
	grp.Get("/info", h.Info)
}

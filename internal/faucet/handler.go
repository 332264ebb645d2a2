package faucet

import (
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/azore-network/faucet/internal/chain"
)

// Handler exposes HTTP endpoints for faucet operations.
type Handler struct {
	service *Service
}

// NewHandler constructs a faucet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RequestTokensBody is the POST /faucet/request payload.
type RequestTokensBody struct {
	WalletAddress string `json:"wallet_address"`
}

// Request processes a disbursement request.
func (h *Handler) Request(c *fiber.Ctx) error {
	var body RequestTokensBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if !common.IsHexAddress(body.WalletAddress) {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet address")
	}

	outcome, err := h.service.RequestDisbursement(c.UserContext(), body.WalletAddress, clientIP(c))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "disbursement failed")
	}

	switch outcome.Status {
	case StatusSuccess:
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"success": true,
			"transaction": fiber.Map{
				"hash":         outcome.Reference,
				"block_number": outcome.BlockNumber,
				"amount":       chain.FormatAmount(outcome.Amount),
			},
			"user": fiber.Map{
				"total_received":    chain.FormatAmount(outcome.TotalReceived),
				"request_count":     outcome.RequestCount,
				"next_request_time": outcome.NextEligibleAt.UTC().Format(time.RFC3339),
			},
		})
	case StatusRejected:
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{
			"error":             "request too soon",
			"reason":            outcome.Decision.Reason,
			"hours_remaining":   outcome.Decision.HoursRemaining,
			"restricting_key":   outcome.Decision.RestrictingKey,
			"next_request_time": outcome.Decision.NextEligibleAt.UTC().Format(time.RFC3339),
		})
	case StatusInProgress:
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{
			"error":   "transaction in progress",
			"message": "wait for your previous request to complete before retrying",
		})
	case StatusInsufficientFunds:
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "faucet temporarily unavailable",
			"message": outcome.Message,
		})
	default:
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{
			"error":   "transfer failed",
			"message": outcome.Message,
		})
	}
}

// Status reports eligibility and ledger history for a wallet.
func (h *Handler) Status(c *fiber.Ctx) error {
	walletAddress := c.Params("walletAddress")
	if !common.IsHexAddress(walletAddress) {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet address")
	}

	decision, rec, err := h.service.CheckStatus(c.UserContext(), walletAddress, clientIP(c))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "status check failed")
	}

	resp := fiber.Map{
		"wallet_address":  strings.ToLower(walletAddress),
		"can_request":     decision.Eligible,
		"reason":          decision.Reason,
		"hours_remaining": decision.HoursRemaining,
		"total_received":  "0",
		"request_count":   0,
	}
	if rec != nil {
		resp["total_received"] = chain.FormatAmount(rec.TotalWei)
		resp["request_count"] = rec.RequestCount
		resp["last_request_time"] = rec.LastDisbursedAt.UTC().Format(time.RFC3339)
	}
	if !decision.Eligible {
		resp["restricting_key"] = decision.RestrictingKey
		resp["next_request_time"] = decision.NextEligibleAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(resp)
}

// Info reports faucet configuration, treasury funding and aggregate stats.
func (h *Handler) Info(c *fiber.Ctx) error {
	info, err := h.service.Info(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, "faucet info unavailable")
	}

	return c.JSON(fiber.Map{
		"faucet": fiber.Map{
			"amount":           chain.FormatAmount(info.Amount),
			"symbol":           "AZE",
			"cooldown_hours":   info.Cooldown.Hours(),
			"treasury_balance": chain.FormatAmount(info.TreasuryBalance),
			"is_active":        info.Active,
		},
		"network": fiber.Map{
			"chain_id":     info.Network.ChainID,
			"block_number": info.Network.BlockNumber,
			"gas_price":    info.Network.GasPrice.String(),
		},
		"stats": fiber.Map{
			"total_users":              info.Stats.Accounts,
			"total_requests":           info.Stats.TotalRequests,
			"total_tokens_distributed": chain.FormatAmount(info.Stats.TotalDisbursed),
		},
	})
}

// clientIP extracts the originating address, preferring proxy headers the
// way the deployment's edge sets them.
func clientIP(c *fiber.Ctx) string {
	for _, header := range []string{"CF-Connecting-IP", "X-Real-IP"} {
		if v := strings.TrimSpace(c.Get(header)); v != "" {
			return v
		}
	}
	if v := c.Get("X-Forwarded-For"); v != "" {
		if first := strings.TrimSpace(strings.Split(v, ",")[0]); first != "" {
			return first
		}
	}
	return c.IP()
}

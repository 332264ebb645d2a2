package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/azore-network/faucet/internal/account"
	"github.com/azore-network/faucet/internal/chain"
	"github.com/azore-network/faucet/internal/config"
	"github.com/azore-network/faucet/internal/infra"
	"github.com/azore-network/faucet/internal/logging"
	"github.com/azore-network/faucet/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.AppName, cfg.LogLevel)

	ctx := context.Background()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := account.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	chainClient, err := chain.DialEVM(ctx, cfg.RPCURL, cfg.TreasuryPrivateKey)
	if err != nil {
		logger.Error("connect rpc", "error", err)
		os.Exit(1)
	}
	defer chainClient.Close()

	if !strings.EqualFold(chainClient.Treasury(), cfg.TreasuryAddress) {
		logger.Error("treasury key does not match TREASURY_ADDRESS",
			"derived", chainClient.Treasury(),
			"configured", cfg.TreasuryAddress,
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, db, cache, chainClient, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	logger.Info("faucet starting",
		"port", cfg.Port,
		"amount", cfg.FaucetAmount,
		"cooldown", cfg.Cooldown.String(),
	)

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

package faucet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/azore-network/faucet/internal/account"
	"github.com/azore-network/faucet/internal/chain"
	"github.com/azore-network/faucet/internal/eligibility"
	"github.com/azore-network/faucet/internal/identity"
	"github.com/azore-network/faucet/internal/inflight"
	"github.com/azore-network/faucet/internal/notification"
)

// Params fixes the disbursement policy for a service instance.
type Params struct {
	Amount   *big.Int
	Cooldown time.Duration
	Treasury string
}

// Service coordinates a disbursement request through resolution, admission,
// in-flight locking, execution and ledger recording. It is the only
// component exposed to the HTTP layer.
type Service struct {
	repo      account.Repository
	evaluator *eligibility.Evaluator
	locks     *inflight.Registry
	executor  *Executor
	client    chain.Client
	resolver  *identity.Resolver
	notifier  notification.Notifier
	logger    *slog.Logger
	params    Params
}

// NewService wires the coordinator from its collaborators.
func NewService(repo account.Repository, locks *inflight.Registry, client chain.Client, resolver *identity.Resolver, notifier notification.Notifier, logger *slog.Logger, params Params) (*Service, error) {
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("faucet amount must be positive")
	}
	if params.Cooldown <= 0 {
		return nil, fmt.Errorf("cooldown must be positive")
	}
	if params.Treasury == "" {
		return nil, fmt.Errorf("treasury address is required")
	}

	return &Service{
		repo:      repo,
		evaluator: eligibility.New(repo),
		locks:     locks,
		executor:  NewExecutor(client, params.Treasury),
		client:    client,
		resolver:  resolver,
		notifier:  notifier,
		logger:    logger,
		params:    params,
	}, nil
}

// RequestDisbursement runs the full admission and transfer sequence for one
// request. A non-nil error is returned only for infrastructure faults; every
// policy, concurrency, funding or execution failure comes back as a
// structured Outcome.
func (s *Service) RequestDisbursement(ctx context.Context, walletAddress, origin string) (Outcome, error) {
	primary := identity.NormalizeWallet(walletAddress)
	secondary := s.resolver.OriginKey(origin)

	decision, err := s.evaluator.Evaluate(ctx, primary, secondary, s.params.Cooldown)
	if err != nil {
		return Outcome{}, fmt.Errorf("evaluate eligibility: %w", err)
	}
	if !decision.Eligible {
		return Outcome{Status: StatusRejected, Decision: decision}, nil
	}

	keys := lockKeys(primary, secondary)
	if !s.locks.TryAcquire(keys...) {
		return Outcome{Status: StatusInProgress}, nil
	}
	defer s.locks.Release(keys...)

	// The store may have changed between the first read and the reservation;
	// re-validate under the lock before money moves.
	decision, err = s.evaluator.Evaluate(ctx, primary, secondary, s.params.Cooldown)
	if err != nil {
		return Outcome{}, fmt.Errorf("revalidate eligibility: %w", err)
	}
	if !decision.Eligible {
		return Outcome{Status: StatusRejected, Decision: decision}, nil
	}

	// A caller disconnect must not abandon a submitted transfer, so the
	// execute-and-record phase runs detached from request cancellation.
	dctx := context.WithoutCancel(ctx)

	receipt, err := s.executor.Execute(dctx, primary, s.params.Amount)
	if err != nil {
		return s.executionOutcome(primary, err), nil
	}

	rec, err := s.repo.RecordDisbursement(dctx, primary, secondary, s.params.Amount, receipt.TxHash)
	if err != nil {
		// Funds moved but the ledger write failed. Surface the success with
		// its reference and flag the gap for manual reconciliation; the
		// deferred release still frees the identity keys.
		s.notifyAnomaly(dctx, primary, receipt.TxHash, err)
		return Outcome{
			Status:         StatusSuccess,
			Reference:      receipt.TxHash,
			BlockNumber:    receipt.BlockNumber,
			Amount:         new(big.Int).Set(s.params.Amount),
			NextEligibleAt: time.Now().UTC().Add(s.params.Cooldown),
		}, nil
	}

	s.logger.Info("disbursement complete",
		"wallet", primary,
		"reference", receipt.TxHash,
		"block", receipt.BlockNumber,
		"request_count", rec.RequestCount,
	)

	return Outcome{
		Status:         StatusSuccess,
		Reference:      receipt.TxHash,
		BlockNumber:    receipt.BlockNumber,
		Amount:         new(big.Int).Set(s.params.Amount),
		TotalReceived:  rec.TotalWei,
		RequestCount:   rec.RequestCount,
		NextEligibleAt: rec.LastDisbursedAt.Add(s.params.Cooldown),
	}, nil
}

// CheckStatus performs the eligibility evaluation without side effects and
// returns the wallet's ledger record when one exists.
func (s *Service) CheckStatus(ctx context.Context, walletAddress, origin string) (eligibility.Decision, *account.Record, error) {
	primary := identity.NormalizeWallet(walletAddress)
	secondary := s.resolver.OriginKey(origin)

	decision, err := s.evaluator.Evaluate(ctx, primary, secondary, s.params.Cooldown)
	if err != nil {
		return eligibility.Decision{}, nil, fmt.Errorf("evaluate eligibility: %w", err)
	}

	rec, err := s.repo.FindByWallet(ctx, primary)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return decision, nil, nil
		}
		return eligibility.Decision{}, nil, err
	}
	return decision, &rec, nil
}

// Info summarises faucet configuration, treasury funding and ledger totals.
type Info struct {
	Amount          *big.Int
	Cooldown        time.Duration
	TreasuryBalance *big.Int
	Active          bool
	Network         chain.NetworkInfo
	Stats           account.Stats
}

// Info reports the operational snapshot served by the info endpoint.
func (s *Service) Info(ctx context.Context) (Info, error) {
	balance, err := s.client.BalanceAt(ctx, s.params.Treasury)
	if err != nil {
		return Info{}, fmt.Errorf("treasury balance: %w", err)
	}
	network, err := s.client.NetworkInfo(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("network info: %w", err)
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("ledger stats: %w", err)
	}

	return Info{
		Amount:          new(big.Int).Set(s.params.Amount),
		Cooldown:        s.params.Cooldown,
		TreasuryBalance: balance,
		Active:          balance.Cmp(s.params.Amount) >= 0,
		Network:         network,
		Stats:           stats,
	}, nil
}

func (s *Service) executionOutcome(wallet string, err error) Outcome {
	switch {
	case errors.Is(err, chain.ErrInsufficientFunds):
		return Outcome{Status: StatusInsufficientFunds, Message: "insufficient funds in faucet treasury"}
	case errors.Is(err, chain.ErrAlreadySubmitted):
		return Outcome{Status: StatusFailed, Message: "transfer already submitted; wait for the pending transaction to settle"}
	default:
		s.logger.Error("transfer failed", "wallet", wallet, "error", err)
		return Outcome{Status: StatusFailed, Message: err.Error()}
	}
}

func (s *Service) notifyAnomaly(ctx context.Context, wallet, reference string, err error) {
	s.logger.Error("transfer confirmed but ledger write failed",
		"wallet", wallet, "reference", reference, "error", err)
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{
		Kind:      notification.KindLedgerAnomaly,
		Wallet:    wallet,
		Reference: reference,
		Body:      fmt.Sprintf("confirmed transfer %s to %s is missing from the ledger: %v", reference, wallet, err),
	})
}

func lockKeys(primary, secondary string) []string {
	if secondary == identity.UnknownOrigin {
		return []string{primary}
	}
	return []string{primary, secondary}
}

package eligibility

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/azore-network/faucet/internal/account"
	"github.com/azore-network/faucet/internal/identity"
)

const cooldown = 24 * time.Hour

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newEvaluator(repo account.Repository) *Evaluator {
	return New(repo, WithClock(func() time.Time { return now }))
}

func seed(repo *account.MemoryRepository, wallet, originKey string, lastAt time.Time) {
	repo.Seed(account.Record{
		Wallet:          wallet,
		LastOriginKey:   originKey,
		TotalWei:        big.NewInt(1),
		RequestCount:    1,
		LastDisbursedAt: lastAt,
	})
}

func TestEvaluateNewIdentity(t *testing.T) {
	repo := account.NewMemoryRepository()
	e := newEvaluator(repo)

	d, err := e.Evaluate(context.Background(), "0xaaa", "origin-1", cooldown)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !d.Eligible || d.Reason != ReasonNew {
		t.Fatalf("expected eligible new, got %+v", d)
	}
	if d.HoursRemaining != 0 || d.RestrictingKey != "" {
		t.Fatalf("new identity carries restriction: %+v", d)
	}
}

func TestEvaluateCooldownActivePrimary(t *testing.T) {
	repo := account.NewMemoryRepository()
	seed(repo, "0xaaa", "origin-1", now.Add(-30*time.Minute))
	e := newEvaluator(repo)

	d, err := e.Evaluate(context.Background(), "0xaaa", identity.UnknownOrigin, cooldown)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Eligible {
		t.Fatalf("expected ineligible, got %+v", d)
	}
	if d.Reason != ReasonCooldownActive || d.RestrictingKey != KeyPrimary {
		t.Fatalf("unexpected reason/key: %+v", d)
	}
	// 23.5h remain; fractional hours round up, never down.
	if d.HoursRemaining != 24 {
		t.Fatalf("expected 24 hours remaining, got %d", d.HoursRemaining)
	}
	if !d.NextEligibleAt.Equal(now.Add(23*time.Hour + 30*time.Minute)) {
		t.Fatalf("unexpected next eligible time: %v", d.NextEligibleAt)
	}
}

func TestEvaluateCooldownExpired(t *testing.T) {
	repo := account.NewMemoryRepository()
	seed(repo, "0xaaa", "origin-1", now.Add(-25*time.Hour))
	e := newEvaluator(repo)

	d, err := e.Evaluate(context.Background(), "0xaaa", identity.UnknownOrigin, cooldown)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !d.Eligible || d.Reason != ReasonCooldownExpired {
		t.Fatalf("expected eligible expired, got %+v", d)
	}
	if !d.LastDisbursedAt.Equal(now.Add(-25 * time.Hour)) {
		t.Fatalf("last disbursement time lost: %+v", d)
	}
}

func TestEvaluateSecondaryRestrictsNewWallet(t *testing.T) {
	repo := account.NewMemoryRepository()
	// A different wallet recently drained from the same origin.
	seed(repo, "0xbbb", "shared-origin", now.Add(-time.Hour))
	e := newEvaluator(repo)

	d, err := e.Evaluate(context.Background(), "0xaaa", "shared-origin", cooldown)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Eligible {
		t.Fatalf("expected origin restriction, got %+v", d)
	}
	if d.RestrictingKey != KeySecondary {
		t.Fatalf("expected secondary restriction, got %+v", d)
	}
	if d.HoursRemaining != 23 {
		t.Fatalf("expected 23 hours remaining, got %d", d.HoursRemaining)
	}
}

func TestEvaluateUnknownOriginNeverRestricts(t *testing.T) {
	repo := account.NewMemoryRepository()
	// Prior unknown-origin disbursement to another wallet must not matter.
	seed(repo, "0xbbb", identity.UnknownOrigin, now.Add(-time.Minute))
	e := newEvaluator(repo)

	d, err := e.Evaluate(context.Background(), "0xaaa", identity.UnknownOrigin, cooldown)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !d.Eligible || d.Reason != ReasonNew {
		t.Fatalf("unknown origin restricted a new wallet: %+v", d)
	}
}

func TestEvaluateMoreRestrictiveKeyWins(t *testing.T) {
	repo := account.NewMemoryRepository()
	// Primary has 4h left, the origin (via another wallet) has 20h left.
	seed(repo, "0xaaa", "other-origin", now.Add(-20*time.Hour))
	seed(repo, "0xbbb", "shared-origin", now.Add(-4*time.Hour))
	e := newEvaluator(repo)

	d, err := e.Evaluate(context.Background(), "0xaaa", "shared-origin", cooldown)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Eligible {
		t.Fatalf("expected ineligible, got %+v", d)
	}
	if d.RestrictingKey != KeySecondary {
		t.Fatalf("expected secondary to win with larger wait, got %s", d.RestrictingKey)
	}
	if d.HoursRemaining != 20 {
		t.Fatalf("expected 20 hours remaining, got %d", d.HoursRemaining)
	}
	if !d.LastDisbursedAt.Equal(now.Add(-4 * time.Hour)) {
		t.Fatalf("expected restricting key's last time, got %v", d.LastDisbursedAt)
	}
}

func TestEvaluateExpiredPrimaryStillBlockedBySecondary(t *testing.T) {
	repo := account.NewMemoryRepository()
	// Primary served long ago, but the origin drained recently via another wallet.
	seed(repo, "0xaaa", "other-origin", now.Add(-48*time.Hour))
	seed(repo, "0xbbb", "shared-origin", now.Add(-2*time.Hour))
	e := newEvaluator(repo)

	d, err := e.Evaluate(context.Background(), "0xaaa", "shared-origin", cooldown)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Eligible || d.Reason != ReasonCooldownActive {
		t.Fatalf("expected active cooldown via secondary, got %+v", d)
	}
	if d.RestrictingKey != KeySecondary {
		t.Fatalf("expected secondary restriction, got %s", d.RestrictingKey)
	}
	if d.HoursRemaining != 22 {
		t.Fatalf("expected 22 hours remaining, got %d", d.HoursRemaining)
	}
}

func TestEvaluateExactTieReportsBothKeys(t *testing.T) {
	repo := account.NewMemoryRepository()
	lastAt := now.Add(-2 * time.Hour)
	seed(repo, "0xaaa", "shared-origin", lastAt)
	e := newEvaluator(repo)

	// Same record restricts both dimensions, so the waits tie exactly.
	d, err := e.Evaluate(context.Background(), "0xaaa", "shared-origin", cooldown)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Eligible {
		t.Fatalf("expected ineligible, got %+v", d)
	}
	if d.RestrictingKey != KeyBoth {
		t.Fatalf("expected combined restriction, got %s", d.RestrictingKey)
	}
}

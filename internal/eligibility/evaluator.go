package eligibility

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/azore-network/faucet/internal/account"
	"github.com/azore-network/faucet/internal/identity"
)

// Reasons reported on a Decision.
const (
	ReasonNew             = "new"
	ReasonCooldownActive  = "cooldown_active"
	ReasonCooldownExpired = "cooldown_expired"
)

// Keys a Decision may attribute a restriction to.
const (
	KeyPrimary   = "primary"
	KeySecondary = "secondary"
	KeyBoth      = "both"
)

// Decision is the combined admission verdict for one request.
type Decision struct {
	Eligible        bool
	Reason          string
	HoursRemaining  int
	RestrictingKey  string
	LastDisbursedAt time.Time
	NextEligibleAt  time.Time
}

// Evaluator computes cooldown status for the wallet key and the origin key
// independently and combines them conservatively: both must be eligible.
type Evaluator struct {
	repo account.Repository
	now  func() time.Time
}

// Option customises the evaluator.
type Option func(*Evaluator)

// WithClock sets the function used to derive the current time.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// New constructs an evaluator over the given record store.
func New(repo account.Repository, opts ...Option) *Evaluator {
	e := &Evaluator{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type keyStatus struct {
	key       string
	isNew     bool
	remaining time.Duration
	lastAt    time.Time
}

func (s keyStatus) eligible() bool {
	return s.remaining <= 0
}

// Evaluate is a pure, consistent read: it never mutates the store. The
// coordinator re-runs it under the in-flight reservation before executing,
// since the store may change underneath a slow external call.
func (e *Evaluator) Evaluate(ctx context.Context, primaryKey, secondaryKey string, cooldown time.Duration) (Decision, error) {
	statuses := make([]keyStatus, 0, 2)

	primary, err := e.status(ctx, KeyPrimary, cooldown, func() (account.Record, error) {
		return e.repo.FindByWallet(ctx, primaryKey)
	})
	if err != nil {
		return Decision{}, err
	}
	statuses = append(statuses, primary)

	// Unresolved origins never restrict: the secondary dimension is skipped
	// entirely for the sentinel key.
	if secondaryKey != identity.UnknownOrigin {
		secondary, err := e.status(ctx, KeySecondary, cooldown, func() (account.Record, error) {
			return e.repo.FindLatestByOriginKey(ctx, secondaryKey)
		})
		if err != nil {
			return Decision{}, err
		}
		statuses = append(statuses, secondary)
	}

	return combine(cooldown, statuses), nil
}

func (e *Evaluator) status(_ context.Context, key string, cooldown time.Duration, lookup func() (account.Record, error)) (keyStatus, error) {
	rec, err := lookup()
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return keyStatus{key: key, isNew: true}, nil
		}
		return keyStatus{}, err
	}

	elapsed := e.now().Sub(rec.LastDisbursedAt)
	return keyStatus{
		key:       key,
		remaining: cooldown - elapsed,
		lastAt:    rec.LastDisbursedAt,
	}, nil
}

func combine(cooldown time.Duration, statuses []keyStatus) Decision {
	decision := Decision{Eligible: true, Reason: ReasonNew}

	// The larger remaining wait wins; an exact tie is reported as a
	// combined restriction rather than picking one key arbitrarily.
	var worst keyStatus
	anyHistory := false
	for _, s := range statuses {
		if !s.isNew {
			anyHistory = true
		}
		if s.eligible() {
			if s.lastAt.After(decision.LastDisbursedAt) {
				decision.LastDisbursedAt = s.lastAt
			}
			continue
		}
		switch {
		case decision.Eligible || s.remaining > worst.remaining:
			worst = s
			decision.RestrictingKey = s.key
		case s.remaining == worst.remaining:
			decision.RestrictingKey = KeyBoth
		}
		decision.Eligible = false
	}

	switch {
	case !decision.Eligible:
		decision.Reason = ReasonCooldownActive
		decision.LastDisbursedAt = worst.lastAt
		decision.HoursRemaining = ceilHours(worst.remaining)
		decision.NextEligibleAt = worst.lastAt.Add(cooldown)
	case anyHistory:
		decision.Reason = ReasonCooldownExpired
	}
	return decision
}

// ceilHours rounds the fractional remaining wait up to whole hours, keeping
// sub-hour precision until this final step.
func ceilHours(remaining time.Duration) int {
	return int(math.Ceil(remaining.Hours()))
}

package account

import (
	"math/big"
	"time"
)

// Record is the persistent per-wallet disbursement ledger row. A record is
// created on the first successful disbursement to a wallet, never on a mere
// eligibility check. TotalWei and RequestCount only ever grow, and only
// together.
type Record struct {
	Wallet          string
	LastOriginKey   string
	TotalWei        *big.Int
	RequestCount    int
	LastDisbursedAt time.Time
	LastReference   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy so callers cannot mutate stored big.Int values.
func (r Record) Clone() Record {
	out := r
	if r.TotalWei != nil {
		out.TotalWei = new(big.Int).Set(r.TotalWei)
	}
	return out
}

// Stats aggregates ledger totals for the info endpoint.
type Stats struct {
	Accounts       int
	TotalDisbursed *big.Int
	TotalRequests  int
}

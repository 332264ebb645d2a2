package faucet

import (
	"math/big"
	"time"

	"github.com/azore-network/faucet/internal/eligibility"
)

// Status enumerates the terminal states of one disbursement request.
type Status string

const (
	// StatusSuccess means the transfer confirmed and the ledger was updated.
	StatusSuccess Status = "success"
	// StatusRejected means the cooldown policy denied admission.
	StatusRejected Status = "rejected"
	// StatusInProgress means another request holds an in-flight reservation
	// for one of this request's identity keys.
	StatusInProgress Status = "in_progress"
	// StatusInsufficientFunds means the treasury cannot cover the amount.
	StatusInsufficientFunds Status = "insufficient_funds"
	// StatusFailed means the transfer failed or its outcome is unknown.
	StatusFailed Status = "failed"
)

// Outcome is the structured result the coordinator hands back for every
// request; callers never see an opaque failure for admission, funding or
// execution problems.
type Outcome struct {
	Status         Status
	Decision       eligibility.Decision
	Reference      string
	BlockNumber    uint64
	Amount         *big.Int
	TotalReceived  *big.Int
	RequestCount   int
	NextEligibleAt time.Time
	Message        string
}

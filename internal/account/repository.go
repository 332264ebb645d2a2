package account

import (
	"context"
	"errors"
	"math/big"
)

// ErrNotFound indicates no ledger record exists for the requested key.
var ErrNotFound = errors.New("account not found")

// Repository is the transactional record store behind eligibility checks and
// the ledger writer. Origin keys are not unique across records; lookups by
// origin key return the most recently disbursed association.
type Repository interface {
	FindByWallet(ctx context.Context, wallet string) (Record, error)
	FindLatestByOriginKey(ctx context.Context, originKey string) (Record, error)

	// RecordDisbursement creates the wallet's record on first success or
	// atomically applies total+count increments otherwise. The write is
	// idempotent per reference: replaying the same logical event leaves the
	// record unchanged.
	RecordDisbursement(ctx context.Context, wallet, originKey string, amount *big.Int, reference string) (Record, error)

	Stats(ctx context.Context) (Stats, error)
}

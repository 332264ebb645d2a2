package chain

import (
	"context"
	"errors"
	"math/big"
)

var (
	// ErrAlreadySubmitted indicates the node already holds an identical
	// pending transaction. The caller may retry after the pending transfer
	// settles; resubmitting immediately risks a double payment.
	ErrAlreadySubmitted = errors.New("transfer already submitted")

	// ErrNonceConflict indicates the submission lost a nonce race and can be
	// retried with a refreshed nonce.
	ErrNonceConflict = errors.New("transaction nonce conflict")

	// ErrInsufficientFunds indicates the treasury cannot cover the transfer
	// value plus gas.
	ErrInsufficientFunds = errors.New("insufficient treasury funds")
)

// Receipt describes a confirmed native-token transfer.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Amount      *big.Int
}

// NetworkInfo is a point-in-time snapshot of the connected network.
type NetworkInfo struct {
	ChainID     string
	BlockNumber uint64
	GasPrice    *big.Int
}

// Client is the boundary to the external ledger. Transfer either returns a
// confirmed receipt or an error; errors matching ErrAlreadySubmitted or
// ErrNonceConflict are classified, anything else is non-retryable and may
// represent an unknown outcome.
type Client interface {
	BalanceAt(ctx context.Context, address string) (*big.Int, error)
	Transfer(ctx context.Context, to string, amount *big.Int) (Receipt, error)
	NetworkInfo(ctx context.Context) (NetworkInfo, error)
}

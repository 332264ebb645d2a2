package faucet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/azore-network/faucet/internal/chain"
)

const defaultNonceRetries = 2

// Executor verifies treasury funding and submits the transfer, classifying
// the result. The only automatic retry is the bounded nonce-conflict case:
// any failure whose outcome might be a landed transfer is surfaced untouched,
// never resubmitted.
type Executor struct {
	client       chain.Client
	treasury     string
	nonceRetries int
}

// NewExecutor constructs an executor funding transfers from the treasury
// address.
func NewExecutor(client chain.Client, treasury string) *Executor {
	return &Executor{client: client, treasury: treasury, nonceRetries: defaultNonceRetries}
}

// Execute checks funding and submits a transfer of amount wei to the wallet.
// The balance check is best-effort: concurrent disbursements to other wallets
// may still drain the treasury between check and submit, in which case the
// node rejects the transfer.
func (e *Executor) Execute(ctx context.Context, wallet string, amount *big.Int) (chain.Receipt, error) {
	balance, err := e.client.BalanceAt(ctx, e.treasury)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("treasury balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return chain.Receipt{}, chain.ErrInsufficientFunds
	}

	var receipt chain.Receipt
	for attempt := 0; ; attempt++ {
		receipt, err = e.client.Transfer(ctx, wallet, amount)
		if err == nil {
			return receipt, nil
		}
		// A nonce conflict means our transaction never entered the pool, so
		// resubmitting with a fresh nonce is safe. Everything else may have
		// landed and must not be retried.
		if !errors.Is(err, chain.ErrNonceConflict) || attempt >= e.nonceRetries {
			return chain.Receipt{}, err
		}
	}
}

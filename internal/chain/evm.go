package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const transferGasLimit = 21000

// EVMClient submits native-token transfers signed by the treasury key over
// JSON-RPC.
type EVMClient struct {
	rpc          *ethclient.Client
	key          *ecdsa.PrivateKey
	treasury     common.Address
	chainID      *big.Int
	pollInterval time.Duration
}

// DialEVM connects to the node, derives the treasury account from the
// private key and caches the chain ID for transaction signing.
func DialEVM(ctx context.Context, rpcURL, privateKeyHex string) (*EVMClient, error) {
	rpcURL = strings.TrimSpace(rpcURL)
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse treasury key: %w", err)
	}

	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	return &EVMClient{
		rpc:          rpc,
		key:          key,
		treasury:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:      chainID,
		pollInterval: 2 * time.Second,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *EVMClient) Close() {
	c.rpc.Close()
}

// Treasury returns the address transfers are funded from.
func (c *EVMClient) Treasury() string {
	return strings.ToLower(c.treasury.Hex())
}

// BalanceAt returns the current balance of the given address in wei.
func (c *EVMClient) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	balance, err := c.rpc.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}
	return balance, nil
}

// Transfer signs and submits a value transfer, then polls until the
// transaction is mined. If the context expires after submission the outcome
// is unknown and the returned error says so; the transaction is never
// resubmitted here.
func (c *EVMClient) Transfer(ctx context.Context, to string, amount *big.Int) (Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Receipt{}, fmt.Errorf("amount must be positive")
	}

	nonce, err := c.rpc.PendingNonceAt(ctx, c.treasury)
	if err != nil {
		return Receipt{}, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("fetch gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, common.HexToAddress(to), amount, transferGasLimit, gasPrice, nil)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return Receipt{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := c.rpc.SendTransaction(ctx, signed); err != nil {
		return Receipt{}, classifySubmitError(err)
	}

	receipt, err := c.waitMined(ctx, signed.Hash())
	if err != nil {
		return Receipt{}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return Receipt{}, fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}

	return Receipt{
		TxHash:      signed.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Amount:      new(big.Int).Set(amount),
	}, nil
}

// NetworkInfo reports chain ID, head block and suggested gas price.
func (c *EVMClient) NetworkInfo(ctx context.Context) (NetworkInfo, error) {
	block, err := c.rpc.BlockNumber(ctx)
	if err != nil {
		return NetworkInfo{}, fmt.Errorf("fetch block number: %w", err)
	}
	gasPrice, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return NetworkInfo{}, fmt.Errorf("fetch gas price: %w", err)
	}
	return NetworkInfo{
		ChainID:     c.chainID.String(),
		BlockNumber: block,
		GasPrice:    gasPrice,
	}, nil
}

func (c *EVMClient) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if err != ethereum.NotFound {
			return nil, fmt.Errorf("fetch receipt for %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			// Submitted but unconfirmed: the outcome is unknown.
			return nil, fmt.Errorf("transfer %s outcome unknown: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// classifySubmitError maps node submission failures onto the package's
// sentinel errors so callers can decide retry behaviour with errors.Is.
func classifySubmitError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already known"), strings.Contains(msg, "known transaction"):
		return fmt.Errorf("%w: %s", ErrAlreadySubmitted, msg)
	case strings.Contains(msg, "nonce too low"), strings.Contains(msg, "replacement transaction underpriced"):
		return fmt.Errorf("%w: %s", ErrNonceConflict, msg)
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, msg)
	default:
		return fmt.Errorf("submit transaction: %w", err)
	}
}

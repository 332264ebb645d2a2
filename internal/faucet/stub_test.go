package faucet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/azore-network/faucet/internal/chain"
	"github.com/azore-network/faucet/internal/notification"
)

// stubChain is a scriptable chain.Client. Errors are consumed one per
// Transfer call; calls past the script succeed.
type stubChain struct {
	mu        sync.Mutex
	balance   *big.Int
	errs      []error
	transfers int

	// gate, when set, blocks Transfer until released. started is signalled
	// once per call before blocking.
	gate    chan struct{}
	started chan struct{}
}

func newStubChain(balance *big.Int) *stubChain {
	return &stubChain{balance: balance}
}

func (s *stubChain) BalanceAt(_ context.Context, _ string) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.balance), nil
}

func (s *stubChain) Transfer(_ context.Context, _ string, amount *big.Int) (chain.Receipt, error) {
	s.mu.Lock()
	idx := s.transfers
	s.transfers++
	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	gate, started := s.gate, s.started
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return chain.Receipt{}, err
	}
	return chain.Receipt{
		TxHash:      fmt.Sprintf("0xhash%d", idx),
		BlockNumber: uint64(100 + idx),
		GasUsed:     21000,
		Amount:      new(big.Int).Set(amount),
	}, nil
}

func (s *stubChain) NetworkInfo(_ context.Context) (chain.NetworkInfo, error) {
	return chain.NetworkInfo{ChainID: "1337", BlockNumber: 42, GasPrice: big.NewInt(1)}, nil
}

func (s *stubChain) transferCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transfers
}

// captureNotifier records the last operational notification.
type captureNotifier struct {
	mu   sync.Mutex
	last notification.Message
	sent int
}

func (n *captureNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = msg
	n.sent++
	return nil
}

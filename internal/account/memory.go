package account

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// MemoryRepository is a concurrency-safe in-memory record store useful for
// unit tests. It mirrors the PostgreSQL semantics, including the
// per-reference idempotency guard.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Test helper.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Seed inserts a record verbatim. Test helper.
func (r *MemoryRepository) Seed(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Wallet] = rec.Clone()
}

// FindByWallet fetches the record keyed by normalized wallet address.
func (r *MemoryRepository) FindByWallet(_ context.Context, wallet string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[wallet]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec.Clone(), nil
}

// FindLatestByOriginKey returns the most recently disbursed record carrying
// the given origin key.
func (r *MemoryRepository) FindLatestByOriginKey(_ context.Context, originKey string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		latest Record
		found  bool
	)
	for _, rec := range r.records {
		if rec.LastOriginKey != originKey {
			continue
		}
		if !found || rec.LastDisbursedAt.After(latest.LastDisbursedAt) {
			latest = rec
			found = true
		}
	}
	if !found {
		return Record{}, ErrNotFound
	}
	return latest.Clone(), nil
}

// RecordDisbursement creates or increments the wallet's record atomically.
func (r *MemoryRepository) RecordDisbursement(_ context.Context, wallet, originKey string, amount *big.Int, reference string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	rec, exists := r.records[wallet]
	if !exists {
		rec = Record{
			Wallet:          wallet,
			LastOriginKey:   originKey,
			TotalWei:        new(big.Int).Set(amount),
			RequestCount:    1,
			LastDisbursedAt: now,
			LastReference:   reference,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		r.records[wallet] = rec
		return rec.Clone(), nil
	}

	if rec.LastReference == reference {
		return rec.Clone(), nil
	}

	rec.TotalWei = new(big.Int).Add(rec.TotalWei, amount)
	rec.RequestCount++
	rec.LastDisbursedAt = now
	rec.LastOriginKey = originKey
	rec.LastReference = reference
	rec.UpdatedAt = now
	r.records[wallet] = rec
	return rec.Clone(), nil
}

// Stats aggregates ledger totals across all wallets.
func (r *MemoryRepository) Stats(_ context.Context) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{TotalDisbursed: new(big.Int)}
	for _, rec := range r.records {
		stats.Accounts++
		stats.TotalRequests += rec.RequestCount
		stats.TotalDisbursed.Add(stats.TotalDisbursed, rec.TotalWei)
	}
	return stats, nil
}

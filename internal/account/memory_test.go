package account

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"
)

func wei(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("invalid wei literal %q", s)
	}
	return v
}

func TestRecordDisbursementCreatesOnFirstSuccess(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.FindByWallet(ctx, "0xaaa"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec, err := repo.RecordDisbursement(ctx, "0xaaa", "origin-1", wei(t, "500"), "tx-1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.RequestCount != 1 || rec.TotalWei.String() != "500" {
		t.Fatalf("unexpected first record: %+v", rec)
	}
	if rec.LastOriginKey != "origin-1" || rec.LastReference != "tx-1" {
		t.Fatalf("origin/reference not stored: %+v", rec)
	}
}

func TestRecordDisbursementIncrementsAtomically(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.RecordDisbursement(ctx, "0xaaa", "origin-1", wei(t, "500"), "tx-1")
	rec, err := repo.RecordDisbursement(ctx, "0xaaa", "origin-2", wei(t, "500"), "tx-2")
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if rec.RequestCount != 2 || rec.TotalWei.String() != "1000" {
		t.Fatalf("expected count=2 total=1000, got %+v", rec)
	}
	if rec.LastOriginKey != "origin-2" {
		t.Fatalf("origin key not overwritten: %s", rec.LastOriginKey)
	}
}

func TestRecordDisbursementIdempotentPerReference(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.RecordDisbursement(ctx, "0xaaa", "origin-1", wei(t, "500"), "tx-1")
	rec, err := repo.RecordDisbursement(ctx, "0xaaa", "origin-1", wei(t, "500"), "tx-1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if rec.RequestCount != 1 || rec.TotalWei.String() != "500" {
		t.Fatalf("replay mutated the record: %+v", rec)
	}
}

func TestFindLatestByOriginKeyReturnsMostRecent(t *testing.T) {
	repo := NewMemoryRepository()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	repo.Seed(Record{Wallet: "0xaaa", LastOriginKey: "shared", TotalWei: wei(t, "1"), RequestCount: 1, LastDisbursedAt: base})
	repo.Seed(Record{Wallet: "0xbbb", LastOriginKey: "shared", TotalWei: wei(t, "1"), RequestCount: 1, LastDisbursedAt: base.Add(time.Hour)})

	rec, err := repo.FindLatestByOriginKey(context.Background(), "shared")
	if err != nil {
		t.Fatalf("find latest: %v", err)
	}
	if rec.Wallet != "0xbbb" {
		t.Fatalf("expected latest wallet 0xbbb, got %s", rec.Wallet)
	}

	if _, err := repo.FindLatestByOriginKey(context.Background(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent key, got %v", err)
	}
}

func TestRecordDisbursementConcurrent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := repo.RecordDisbursement(ctx, "0xaaa", "origin-1", wei(t, "10"), fmt.Sprintf("tx-%d", i)); err != nil {
				t.Errorf("record %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	rec, err := repo.FindByWallet(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.RequestCount != workers || rec.TotalWei.String() != fmt.Sprintf("%d", workers*10) {
		t.Fatalf("lost update: %+v", rec)
	}
}

func TestStats(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.RecordDisbursement(ctx, "0xaaa", "o1", wei(t, "500"), "tx-1")
	repo.RecordDisbursement(ctx, "0xbbb", "o2", wei(t, "300"), "tx-2")
	repo.RecordDisbursement(ctx, "0xbbb", "o2", wei(t, "300"), "tx-3")

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Accounts != 2 || stats.TotalRequests != 3 || stats.TotalDisbursed.String() != "1100" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

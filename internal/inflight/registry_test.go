package inflight

import (
	"sync"
	"testing"
)

func TestTryAcquireAndRelease(t *testing.T) {
	r := NewRegistry()

	if !r.TryAcquire("wallet:a", "origin:1") {
		t.Fatalf("acquire on empty registry failed")
	}
	if r.TryAcquire("wallet:a") {
		t.Fatalf("second acquire of held key succeeded")
	}

	r.Release("wallet:a", "origin:1")
	if !r.TryAcquire("wallet:a") {
		t.Fatalf("acquire after release failed")
	}
}

func TestTryAcquireAllOrNothing(t *testing.T) {
	r := NewRegistry()

	if !r.TryAcquire("origin:1") {
		t.Fatalf("seed acquire failed")
	}

	// wallet:b is free but origin:1 is held; nothing may be reserved.
	if r.TryAcquire("wallet:b", "origin:1") {
		t.Fatalf("partial-conflict acquire succeeded")
	}
	if r.Held("wallet:b") {
		t.Fatalf("rejected acquire left wallet:b reserved")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Release("never-held")
	r.Release("never-held")
	if !r.TryAcquire("never-held") {
		t.Fatalf("acquire after redundant releases failed")
	}
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	r := NewRegistry()

	const workers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryAcquire("wallet:a", "origin:1") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one winner, got %d", count)
	}
}

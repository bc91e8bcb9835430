package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunRangeCoversEveryIndexExactlyOnce(t *testing.T) {
	const total = 97
	var mu sync.Mutex
	seen := make([]int, total)

	err := RunRange("test", total, 8, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		}
	})
	if err != nil {
		t.Fatalf("RunRange: %v", err)
	}
	for i, count := range seen {
		if count != 1 {
			t.Errorf("index %d visited %d times, want 1", i, count)
		}
	}
}

func TestRunRangeZeroTotalIsNoop(t *testing.T) {
	called := false
	if err := RunRange("test", 0, 4, func(lo, hi int) { called = true }); err != nil {
		t.Fatalf("RunRange: %v", err)
	}
	if called {
		t.Fatalf("fn should not be called when total is 0")
	}
}

func TestRunRangePropagatesPanicAsFault(t *testing.T) {
	err := RunRange("boom-stage", 10, 4, func(lo, hi int) {
		panic("kaboom")
	})
	if err == nil {
		t.Fatalf("expected a fault error")
	}
	fault, ok := err.(*Fault)
	if !ok {
		t.Fatalf("expected *Fault, got %T", err)
	}
	if fault.Stage != "boom-stage" {
		t.Errorf("Stage = %q, want boom-stage", fault.Stage)
	}
}

func TestRunShardsRunsAllShards(t *testing.T) {
	const workers = 6
	var count atomic.Int64
	err := RunShards("test", workers, func(shard int) {
		count.Add(1)
	})
	if err != nil {
		t.Fatalf("RunShards: %v", err)
	}
	if count.Load() != workers {
		t.Errorf("count = %d, want %d", count.Load(), workers)
	}
}

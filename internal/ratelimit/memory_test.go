package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreBoundary(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := time.Minute
	limit := 5

	for i := 1; i <= limit; i++ {
		result, err := store.Hit(context.Background(), "k", window, limit, now)
		if err != nil {
			t.Fatalf("hit %d: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("hit %d: expected allowed", i)
		}
		if result.TotalHits != i {
			t.Fatalf("hit %d: total hits = %d", i, result.TotalHits)
		}
		if result.Remaining != limit-i {
			t.Fatalf("hit %d: remaining = %d", i, result.Remaining)
		}
	}

	result, err := store.Hit(context.Background(), "k", window, limit, now)
	if err != nil {
		t.Fatalf("hit %d: %v", limit+1, err)
	}
	if result.Allowed {
		t.Fatalf("expected hit %d rejected", limit+1)
	}
	if result.Remaining != 0 {
		t.Fatalf("rejected hit remaining = %d", result.Remaining)
	}
	if result.TotalHits != limit {
		t.Fatalf("rejected hit must not increment: total hits = %d", result.TotalHits)
	}
}

func TestMemoryStoreWindowReset(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := time.Minute

	for i := 0; i < 3; i++ {
		if _, err := store.Hit(context.Background(), "k", window, 3, now); err != nil {
			t.Fatalf("hit: %v", err)
		}
	}
	if result, _ := store.Hit(context.Background(), "k", window, 3, now); result.Allowed {
		t.Fatalf("expected rejection at limit")
	}

	after := now.Add(window + time.Millisecond)
	result, err := store.Hit(context.Background(), "k", window, 3, after)
	if err != nil {
		t.Fatalf("hit after window: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected allowed after window crossing")
	}
	if result.TotalHits != 1 {
		t.Fatalf("crossing request must count as the first hit, got %d", result.TotalHits)
	}
	if want := after.Add(window); !result.Reset.Equal(want) {
		t.Fatalf("reset = %s, want %s", result.Reset, want)
	}
}

func TestMemoryStoreKeyIsolation(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Hit(context.Background(), "org-a:u1:global:1.2.3.4", time.Minute, 1, now); err != nil {
		t.Fatalf("hit a: %v", err)
	}
	if result, _ := store.Hit(context.Background(), "org-a:u1:global:1.2.3.4", time.Minute, 1, now); result.Allowed {
		t.Fatalf("expected key a exhausted")
	}
	result, err := store.Hit(context.Background(), "org-b:u1:global:1.2.3.4", time.Minute, 1, now)
	if err != nil {
		t.Fatalf("hit b: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("key b must not share key a's counter")
	}
}

func TestMemoryStoreConcurrentExactness(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	limit := 10
	goroutines := 100

	var wg sync.WaitGroup
	allowed := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := store.Hit(context.Background(), "shared", time.Minute, limit, now)
			if err != nil {
				t.Errorf("hit: %v", err)
				return
			}
			allowed <- result.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != limit {
		t.Fatalf("allowed %d of %d, want exactly %d", count, goroutines, limit)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Hit(context.Background(), "old", time.Minute, 5, now); err != nil {
		t.Fatalf("hit old: %v", err)
	}
	if _, err := store.Hit(context.Background(), "fresh", time.Hour, 5, now); err != nil {
		t.Fatalf("hit fresh: %v", err)
	}

	removed := store.Sweep(now.Add(2 * time.Minute))
	if removed != 1 {
		t.Fatalf("swept %d entries, want 1", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("len = %d after sweep, want 1", store.Len())
	}
}

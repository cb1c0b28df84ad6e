package ratelimit

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// defaultSweepInterval controls how often expired counters are removed.
const defaultSweepInterval = time.Minute

type memoryEntry struct {
	count     int
	resetTime time.Time
}

// MemoryStore implements a fixed-window in-memory counter store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
	}
}

// Hit records a request against the key's current window.
// A missing or expired entry resets to count=1; the crossing request
// itself counts. Rejected hits never increment the counter.
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	if entry == nil || now.After(entry.resetTime) {
		entry = &memoryEntry{count: 1, resetTime: now.Add(window)}
		s.entries[key] = entry
		return Result{Allowed: true, Remaining: limit - 1, Reset: entry.resetTime, TotalHits: 1}, nil
	}
	if entry.count >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: entry.resetTime, TotalHits: entry.count}, nil
	}
	entry.count++
	return Result{Allowed: true, Remaining: limit - entry.count, Reset: entry.resetTime, TotalHits: entry.count}, nil
}

// Sweep removes entries whose window has passed and returns the count removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.resetTime) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper launches a timer-driven cleanup loop until ctx is cancelled.
// Cleanup never runs inline with request handling.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if s == nil {
		return
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticker.C:
				if removed := s.Sweep(tick); removed > 0 {
					log.Debugf("rate limit: swept %d expired counters", removed)
				}
			}
		}
	}()
}

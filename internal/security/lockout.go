package security

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// staleResetWindow clears the failure accumulator after an idle hour.
const staleResetWindow = time.Hour

// lockoutSweepInterval controls the out-of-band expired-record sweep.
const lockoutSweepInterval = 5 * time.Minute

type attemptRecord struct {
	count       int
	lastAttempt time.Time
	lockedUntil time.Time
}

// LockoutTracker tracks failed attempts per key and issues time-boxed
// lockouts once the threshold is reached.
type LockoutTracker struct {
	threshold       int
	lockoutDuration time.Duration
	nowFn           func() time.Time

	mu      sync.Mutex
	records map[string]*attemptRecord
}

// NewLockoutTracker constructs a LockoutTracker with default dependencies when nil.
func NewLockoutTracker(threshold int, lockoutDuration time.Duration, nowFn func() time.Time) *LockoutTracker {
	if threshold < 1 {
		threshold = 1
	}
	if lockoutDuration <= 0 {
		lockoutDuration = 15 * time.Minute
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &LockoutTracker{
		threshold:       threshold,
		lockoutDuration: lockoutDuration,
		nowFn:           nowFn,
		records:         make(map[string]*attemptRecord),
	}
}

// RecordFailedAttempt increments the failure accumulator for the key.
// It returns true exactly on the transition into the locked state, never
// on repeated calls while already locked. A gap longer than an hour since
// the last attempt resets the accumulator without locking.
func (t *LockoutTracker) RecordFailedAttempt(key string) bool {
	if t == nil || key == "" {
		return false
	}
	now := t.nowFn()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[key]
	if rec == nil {
		rec = &attemptRecord{}
		t.records[key] = rec
	}
	if !rec.lockedUntil.IsZero() && now.After(rec.lockedUntil) {
		// Lockout elapsed without being observed; start a fresh accumulation.
		rec.count = 0
		rec.lockedUntil = time.Time{}
	}
	if rec.count > 0 && now.Sub(rec.lastAttempt) > staleResetWindow {
		rec.count = 0
		rec.lockedUntil = time.Time{}
	}
	rec.count++
	rec.lastAttempt = now

	if rec.count >= t.threshold && rec.lockedUntil.IsZero() {
		rec.lockedUntil = now.Add(t.lockoutDuration)
		return true
	}
	return false
}

// IsLockedOut reports whether the key is currently locked out.
// Expired records are deleted as a side effect of the read.
func (t *LockoutTracker) IsLockedOut(key string) bool {
	if t == nil || key == "" {
		return false
	}
	now := t.nowFn()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[key]
	if rec == nil {
		return false
	}
	if rec.lockedUntil.IsZero() {
		return false
	}
	if now.After(rec.lockedUntil) {
		delete(t.records, key)
		return false
	}
	return true
}

// Sweep removes records whose lockout and staleness windows have passed.
// Lazy expiry alone leaves keys that are never re-queried; the sweep
// bounds memory against attackers generating many distinct keys.
func (t *LockoutTracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for key, rec := range t.records {
		expired := !rec.lockedUntil.IsZero() && now.After(rec.lockedUntil)
		stale := rec.lockedUntil.IsZero() && now.Sub(rec.lastAttempt) > staleResetWindow
		if expired || stale {
			delete(t.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (t *LockoutTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// StartSweeper launches a timer-driven cleanup loop until ctx is cancelled.
func (t *LockoutTracker) StartSweeper(ctx context.Context, interval time.Duration) {
	if t == nil {
		return
	}
	if interval <= 0 {
		interval = lockoutSweepInterval
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
				if removed := t.Sweep(tick); removed > 0 {
					log.Debugf("security: swept %d expired lockout records", removed)
				}
			}
		}
	}()
}

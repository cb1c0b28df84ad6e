package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestManagerMemoryBackend(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	manager := NewManager(nil, func() time.Time { return now }, nil)
	cfg := Config{Window: time.Minute, MaxRequests: 2}

	for i := 0; i < 2; i++ {
		result, err := manager.Check(context.Background(), "k", cfg)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("hit %d: expected allowed", i+1)
		}
	}
	result, err := manager.Check(context.Background(), "k", cfg)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected third hit rejected")
	}

	now = now.Add(time.Minute + time.Second)
	result, err = manager.Check(context.Background(), "k", cfg)
	if err != nil {
		t.Fatalf("check after window: %v", err)
	}
	if !result.Allowed || result.TotalHits != 1 {
		t.Fatalf("expected fresh window, got allowed=%v hits=%d", result.Allowed, result.TotalHits)
	}
}

func TestManagerInvalidConfig(t *testing.T) {
	manager := NewManager(nil, nil, nil)
	if _, err := manager.Check(context.Background(), "k", Config{Window: -time.Second, MaxRequests: 5}); err == nil {
		t.Fatalf("expected error for negative window")
	}
}

func TestManagerZeroLimitAllows(t *testing.T) {
	manager := NewManager(nil, nil, nil)
	result, err := manager.Check(context.Background(), "k", Config{Window: time.Minute, MaxRequests: 0})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("zero max requests must pass through")
	}
}

func TestManagerRedisFallbackToMemory(t *testing.T) {
	// Redis enabled but unreachable: the breaker trips and the in-process
	// store still enforces the limit.
	provider := func() SettingsConfig {
		scfg := DefaultSettingsConfig()
		scfg.RedisEnabled = true
		scfg.RedisAddr = "127.0.0.1:1"
		return scfg
	}
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	manager := NewManager(provider, func() time.Time { return now }, nil)
	cfg := Config{Window: time.Minute, MaxRequests: 1}

	result, err := manager.Check(context.Background(), "k", cfg)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected first hit allowed via memory fallback")
	}
	result, err = manager.Check(context.Background(), "k", cfg)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected second hit rejected via memory fallback")
	}
}

package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisBreakerDuration = 30 * time.Second

// SettingsProvider supplies the latest settings snapshot.
type SettingsProvider func() SettingsConfig

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

type redisConfig struct {
	addr     string
	password string
	prefix   string
	db       int
}

// Manager selects a counter store backend and enforces rate limits.
// Redis is used when enabled and healthy; a breaker falls the manager
// back to the in-process store for 30s after a Redis failure.
type Manager struct {
	provider       SettingsProvider
	nowFn          func() time.Time
	memoryStore    *MemoryStore
	newRedisClient RedisClientFactory
	mu             sync.Mutex
	redisStore     *RedisStore
	redisCfg       redisConfig
	breakerUntil   time.Time
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(provider SettingsProvider, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if provider == nil {
		provider = func() SettingsConfig { return DefaultSettingsConfig() }
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	return &Manager{
		provider:       provider,
		nowFn:          nowFn,
		memoryStore:    NewMemoryStore(),
		newRedisClient: newRedisClient,
	}
}

// MemoryStore exposes the in-process store so the caller can start its sweeper.
func (m *Manager) MemoryStore() *MemoryStore {
	if m == nil {
		return nil
	}
	return m.memoryStore
}

// Check records a hit for the key and reports whether it is allowed.
func (m *Manager) Check(ctx context.Context, key string, cfg Config) (Result, error) {
	if m == nil || key == "" || cfg.MaxRequests <= 0 {
		return Result{Allowed: true}, nil
	}
	if errValidate := cfg.Validate(); errValidate != nil {
		return Result{}, errValidate
	}
	now := m.nowFn()
	scfg := m.provider()

	if scfg.RedisEnabled {
		if result, ok := m.hitRedis(ctx, key, cfg, now, scfg); ok {
			return result, nil
		}
	}
	return m.memoryStore.Hit(ctx, key, cfg.Window, cfg.MaxRequests, now)
}

func (m *Manager) hitRedis(ctx context.Context, key string, cfg Config, now time.Time, scfg SettingsConfig) (Result, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.isBreakerActive(now) {
		return Result{}, false
	}
	store, errEnsure := m.ensureRedis(ctx, scfg)
	if errEnsure != nil {
		m.tripBreaker(errEnsure, now)
		return Result{}, false
	}
	if store == nil {
		return Result{}, false
	}
	result, errHit := store.Hit(ctx, key, cfg.Window, cfg.MaxRequests, now)
	if errHit != nil {
		m.tripBreaker(errHit, now)
		return Result{}, false
	}
	return result, true
}

func (m *Manager) isBreakerActive(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.breakerUntil.IsZero() {
		return false
	}
	if now.Before(m.breakerUntil) {
		return true
	}
	m.breakerUntil = time.Time{}
	return false
}

func (m *Manager) tripBreaker(err error, now time.Time) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.breakerUntil.IsZero() && now.Before(m.breakerUntil) {
		return
	}
	m.breakerUntil = now.Add(redisBreakerDuration)
	log.WithError(err).Warn("rate limit: redis unavailable, falling back to memory")
}

func (m *Manager) ensureRedis(ctx context.Context, scfg SettingsConfig) (*RedisStore, error) {
	addr := strings.TrimSpace(scfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis: missing address")
	}

	nextCfg := redisConfig{
		addr:     addr,
		password: strings.TrimSpace(scfg.RedisPassword),
		prefix:   strings.TrimSpace(scfg.RedisPrefix),
		db:       scfg.RedisDB,
	}
	if nextCfg.db < 0 {
		nextCfg.db = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.redisStore != nil && m.redisCfg == nextCfg {
		return m.redisStore, nil
	}
	if m.redisStore != nil {
		_ = m.redisStore.client.Close()
		m.redisStore = nil
	}

	client := m.newRedisClient(&redis.Options{
		Addr:     nextCfg.addr,
		Password: nextCfg.password,
		DB:       nextCfg.db,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPing := client.Ping(ctxPing).Err(); errPing != nil {
		_ = client.Close()
		return nil, errPing
	}
	m.redisStore = NewRedisStore(client, nextCfg.prefix)
	m.redisCfg = nextCfg
	return m.redisStore, nil
}

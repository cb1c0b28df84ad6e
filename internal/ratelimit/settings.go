package ratelimit

import (
	"time"

	internalsettings "github.com/abhaytalreja/next-saas-sub007/internal/settings"
)

// SettingsConfig captures rate limit settings stored in DB config.
type SettingsConfig struct {
	WindowMs      int
	MaxRequests   int
	SkipOnError   bool
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// DefaultSettingsConfig returns built-in defaults without a settings store.
func DefaultSettingsConfig() SettingsConfig {
	return SettingsConfig{
		WindowMs:    internalsettings.DefaultRateLimitWindowMs,
		MaxRequests: internalsettings.DefaultRateLimitMaxRequests,
		SkipOnError: internalsettings.DefaultRateLimitSkipOnError,
		RedisPrefix: internalsettings.DefaultRateLimitRedisPrefix,
	}
}

// LoadSettingsConfig loads the current rate limit settings snapshot.
func LoadSettingsConfig(store *internalsettings.Store) SettingsConfig {
	cfg := DefaultSettingsConfig()
	if store == nil {
		return cfg
	}
	cfg.WindowMs = store.Int(internalsettings.RateLimitWindowMsKey, cfg.WindowMs)
	cfg.MaxRequests = store.Int(internalsettings.RateLimitMaxRequestsKey, cfg.MaxRequests)
	cfg.SkipOnError = store.Bool(internalsettings.RateLimitSkipOnErrorKey, cfg.SkipOnError)
	cfg.RedisEnabled = store.Bool(internalsettings.RateLimitRedisEnabledKey, false)
	cfg.RedisAddr = store.String(internalsettings.RateLimitRedisAddrKey, "")
	cfg.RedisPassword = store.String(internalsettings.RateLimitRedisPasswordKey, "")
	cfg.RedisDB = store.Int(internalsettings.RateLimitRedisDBKey, 0)
	cfg.RedisPrefix = store.String(internalsettings.RateLimitRedisPrefixKey, cfg.RedisPrefix)
	if cfg.WindowMs <= 0 {
		cfg.WindowMs = internalsettings.DefaultRateLimitWindowMs
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = internalsettings.DefaultRateLimitMaxRequests
	}
	return cfg
}

// ProviderFromStore builds a SettingsProvider reading the settings snapshot.
func ProviderFromStore(store *internalsettings.Store) SettingsProvider {
	return func() SettingsConfig { return LoadSettingsConfig(store) }
}

// GlobalConfig derives the default endpoint Config from settings.
func (c SettingsConfig) GlobalConfig() Config {
	return Config{
		Window:      time.Duration(c.WindowMs) * time.Millisecond,
		MaxRequests: c.MaxRequests,
		Message:     "Too many requests, please try again later.",
		SkipOnError: c.SkipOnError,
		Headers:     true,
	}
}

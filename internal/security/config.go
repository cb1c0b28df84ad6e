package security

import (
	"time"

	internalsettings "github.com/abhaytalreja/next-saas-sub007/internal/settings"
)

// Config controls threat detection and brute-force lockout behavior.
type Config struct {
	Enabled           bool
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

// DefaultConfig returns built-in detection defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:           internalsettings.DefaultThreatDetectionEnabled,
		MaxFailedAttempts: internalsettings.DefaultMaxFailedAttempts,
		LockoutDuration:   internalsettings.DefaultLockoutDurationSeconds * time.Second,
	}
}

// LoadConfig loads the current detection settings snapshot.
func LoadConfig(store *internalsettings.Store) Config {
	cfg := DefaultConfig()
	if store == nil {
		return cfg
	}
	cfg.Enabled = store.Bool(internalsettings.ThreatDetectionEnabledKey, cfg.Enabled)
	cfg.MaxFailedAttempts = store.Int(internalsettings.MaxFailedAttemptsKey, cfg.MaxFailedAttempts)
	if seconds := store.Int(internalsettings.LockoutDurationSecondsKey, 0); seconds > 0 {
		cfg.LockoutDuration = time.Duration(seconds) * time.Second
	}
	if cfg.MaxFailedAttempts < 1 {
		cfg.MaxFailedAttempts = internalsettings.DefaultMaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = internalsettings.DefaultLockoutDurationSeconds * time.Second
	}
	return cfg
}

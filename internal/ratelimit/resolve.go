package ratelimit

import (
	"context"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EndpointGlobal is the fallback endpoint identifier for unmatched endpoints.
const EndpointGlobal = "global"

// resolveQueryTimeout bounds the override fetch on the request path.
const resolveQueryTimeout = 5 * time.Second

// DefaultLimits builds the built-in per-endpoint limit table.
// The global entry comes from settings; sensitive endpoints carry
// tighter built-in limits.
func DefaultLimits(scfg SettingsConfig) map[string]Config {
	return map[string]Config{
		EndpointGlobal: scfg.GlobalConfig(),
		"auth": {
			Window:      15 * time.Minute,
			MaxRequests: 10,
			Message:     "Too many authentication attempts, please try again later.",
			SkipOnError: scfg.SkipOnError,
			Headers:     true,
		},
		"billing": {
			Window:      time.Minute,
			MaxRequests: 20,
			Message:     "Too many billing requests, please try again later.",
			SkipOnError: scfg.SkipOnError,
			Headers:     true,
		},
		"reports": {
			Window:      5 * time.Minute,
			MaxRequests: 10,
			Message:     "Too many report requests, please try again later.",
			SkipOnError: scfg.SkipOnError,
			Headers:     true,
		},
	}
}

// ResolveOrgLimits merges organization overrides over the defaults.
// Overrides win only for the endpoints they name; every other endpoint
// keeps its default. Any fetch error falls back entirely to defaults so
// conservative limiting still applies.
func ResolveOrgLimits(ctx context.Context, db *gorm.DB, organizationID string, defaults map[string]Config) map[string]Config {
	merged := make(map[string]Config, len(defaults))
	for endpoint, cfg := range defaults {
		merged[endpoint] = cfg
	}
	if db == nil || organizationID == "" {
		return merged
	}
	if ctx == nil {
		ctx = context.Background()
	}
	queryCtx, cancel := context.WithTimeout(ctx, resolveQueryTimeout)
	defer cancel()

	var rows []models.RateLimitOverride
	if errFind := db.WithContext(queryCtx).
		Where("organization_id = ? AND enabled = ?", organizationID, true).
		Find(&rows).Error; errFind != nil {
		log.WithError(errFind).WithField("organization_id", organizationID).
			Warn("rate limit: override fetch failed, using defaults")
		return merged
	}

	for _, row := range rows {
		if row.WindowMs <= 0 || row.MaxRequests < 1 {
			continue
		}
		base, ok := merged[row.Endpoint]
		if !ok {
			base = merged[EndpointGlobal]
		}
		base.Window = time.Duration(row.WindowMs) * time.Millisecond
		base.MaxRequests = row.MaxRequests
		merged[row.Endpoint] = base
	}
	return merged
}

// ConfigForEndpoint picks the endpoint config, falling back to global.
func ConfigForEndpoint(limits map[string]Config, endpoint string) Config {
	if cfg, ok := limits[endpoint]; ok {
		return cfg
	}
	return limits[EndpointGlobal]
}

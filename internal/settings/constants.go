package settings

// DB config keys and defaults for settings.
const (
	// RateLimitWindowMsKey controls the default rate limit window in milliseconds.
	RateLimitWindowMsKey = "RATE_LIMIT_WINDOW_MS"
	// RateLimitMaxRequestsKey controls the default requests allowed per window.
	RateLimitMaxRequestsKey = "RATE_LIMIT_MAX_REQUESTS"
	// RateLimitSkipOnErrorKey controls whether limiter failures fail open.
	RateLimitSkipOnErrorKey = "RATE_LIMIT_SKIP_ON_ERROR"
	// RateLimitRedisEnabledKey toggles Redis-backed rate limit counters.
	RateLimitRedisEnabledKey = "RATE_LIMIT_REDIS_ENABLED"
	// RateLimitRedisAddrKey defines the Redis address for rate limiting.
	RateLimitRedisAddrKey = "RATE_LIMIT_REDIS_ADDR"
	// RateLimitRedisPasswordKey defines the Redis password for rate limiting.
	RateLimitRedisPasswordKey = "RATE_LIMIT_REDIS_PASSWORD"
	// RateLimitRedisDBKey defines the Redis DB index for rate limiting.
	RateLimitRedisDBKey = "RATE_LIMIT_REDIS_DB"
	// RateLimitRedisPrefixKey defines the Redis key prefix for rate limiting.
	RateLimitRedisPrefixKey = "RATE_LIMIT_REDIS_PREFIX"
	// ThreatDetectionEnabledKey toggles request pattern scanning.
	ThreatDetectionEnabledKey = "THREAT_DETECTION_ENABLED"
	// MaxFailedAttemptsKey controls the brute-force lockout threshold.
	MaxFailedAttemptsKey = "MAX_FAILED_ATTEMPTS"
	// LockoutDurationSecondsKey controls how long a lockout lasts in seconds.
	LockoutDurationSecondsKey = "LOCKOUT_DURATION_SECONDS"

	// DefaultRateLimitWindowMs is the fallback window length (one minute).
	DefaultRateLimitWindowMs = 60_000
	// DefaultRateLimitMaxRequests is the fallback requests-per-window limit.
	DefaultRateLimitMaxRequests = 100
	// DefaultRateLimitRedisPrefix is the fallback Redis key prefix.
	DefaultRateLimitRedisPrefix = "nsg:rl"
	// DefaultRateLimitSkipOnError keeps limiter failures fail-closed.
	DefaultRateLimitSkipOnError = false
	// DefaultThreatDetectionEnabled enables scanning unless configured off.
	DefaultThreatDetectionEnabled = true
	// DefaultMaxFailedAttempts is the fallback lockout threshold.
	DefaultMaxFailedAttempts = 5
	// DefaultLockoutDurationSeconds is the fallback lockout length (15 minutes).
	DefaultLockoutDurationSeconds = 900
)

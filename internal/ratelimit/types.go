package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/tenant"
)

// KeyFunc derives the counter key for a request. A custom KeyFunc may
// collapse several endpoints onto one bucket, e.g. a per-organization budget.
type KeyFunc func(r *http.Request, tctx tenant.Context, endpoint string) string

// Config configures rate limiting for one endpoint.
type Config struct {
	Window      time.Duration
	MaxRequests int
	Message     string
	KeyFunc     KeyFunc
	SkipOnError bool
	Headers     bool
}

// Validate checks the Config invariants.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("rate limit: window must be positive, got %s", c.Window)
	}
	if c.MaxRequests < 1 {
		return fmt.Errorf("rate limit: max requests must be at least 1, got %d", c.MaxRequests)
	}
	return nil
}

// Result describes the outcome of one rate limit check.
// It is a derived snapshot and is never stored.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
	TotalHits int
}

// Store counts hits per key over fixed windows.
// Implementations must be safe for concurrent use.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (Result, error)
}

package ratelimit

import (
	"net/http"
	"strings"

	"github.com/abhaytalreja/next-saas-sub007/internal/tenant"
)

// DefaultKey builds the counter key org:user:endpoint:ip.
// Missing identity components use "anonymous" so unauthenticated callers
// still share a bucket per IP.
func DefaultKey(r *http.Request, tctx tenant.Context, endpoint string) string {
	org := strings.TrimSpace(tctx.OrganizationID)
	if org == "" {
		org = "anonymous"
	}
	user := strings.TrimSpace(tctx.UserID)
	if user == "" {
		user = "anonymous"
	}
	if endpoint == "" {
		endpoint = EndpointGlobal
	}
	return org + ":" + user + ":" + endpoint + ":" + tenant.ClientIP(r)
}

// KeyForConfig applies the configured KeyFunc, defaulting to DefaultKey.
func KeyForConfig(cfg Config, r *http.Request, tctx tenant.Context, endpoint string) string {
	if cfg.KeyFunc != nil {
		return cfg.KeyFunc(r, tctx, endpoint)
	}
	return DefaultKey(r, tctx, endpoint)
}

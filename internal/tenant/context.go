package tenant

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey is the gin context key holding the resolved tenant context.
const ContextKey = "tenantContext"

// Context identifies the caller of one request. Values are immutable
// once attached; middleware reads but never mutates them.
type Context struct {
	OrganizationID string
	UserID         string
	Role           string
	Permissions    []string
}

// Anonymous returns a context for callers without a valid identity.
func Anonymous() Context {
	return Context{Role: "anonymous"}
}

// FromGin extracts the tenant context attached to the request.
func FromGin(c *gin.Context) (Context, bool) {
	if c == nil {
		return Context{}, false
	}
	v, exists := c.Get(ContextKey)
	if !exists {
		return Context{}, false
	}
	tctx, ok := v.(Context)
	return tctx, ok
}

// ClientIP resolves the caller IP from proxy headers.
// The first X-Forwarded-For entry wins, then X-Real-IP, then "unknown".
func ClientIP(r *http.Request) string {
	if r == nil {
		return "unknown"
	}
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		if ip := strings.TrimSpace(forwarded); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return "unknown"
}

package pipeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/metrics"
	"github.com/abhaytalreja/next-saas-sub007/internal/models"
	"github.com/abhaytalreja/next-saas-sub007/internal/permissions"
	"github.com/abhaytalreja/next-saas-sub007/internal/ratelimit"
	"github.com/abhaytalreja/next-saas-sub007/internal/security"
	"github.com/abhaytalreja/next-saas-sub007/internal/tenant"
	"github.com/abhaytalreja/next-saas-sub007/internal/usage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Block reasons reported to metrics.
const (
	reasonLockout          = "lockout"
	reasonCriticalThreat   = "critical_threat"
	reasonRateLimit        = "rate_limit"
	reasonLimiterError     = "limiter_error"
	reasonPermissionDenied = "permission_denied"
)

// rejection is the JSON body returned on every short-circuit.
type rejection struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int64  `json:"retryAfter,omitempty"`
}

// Pipeline composes the security middleware chain. Layering is fixed,
// outermost first: tenant attach, security monitor, rate limiter,
// permission gate, handler. Each layer either forwards to the next or
// short-circuits with an error response, skipping everything inner.
type Pipeline struct {
	resolver tenant.Resolver
	monitor  *security.Monitor
	limiter  *ratelimit.Manager
	db       *gorm.DB
	settings ratelimit.SettingsProvider
	tracker  *usage.Tracker
}

// New constructs a Pipeline from explicitly injected components.
func New(resolver tenant.Resolver, monitor *security.Monitor, limiter *ratelimit.Manager, db *gorm.DB, settings ratelimit.SettingsProvider, tracker *usage.Tracker) *Pipeline {
	if settings == nil {
		settings = func() ratelimit.SettingsConfig { return ratelimit.DefaultSettingsConfig() }
	}
	return &Pipeline{
		resolver: resolver,
		monitor:  monitor,
		limiter:  limiter,
		db:       db,
		settings: settings,
		tracker:  tracker,
	}
}

// Chain returns the ordered middleware list guarding one endpoint class.
func (p *Pipeline) Chain(endpoint, requiredPermission string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		tenant.Attach(p.resolver),
		p.SecurityMonitor(),
		p.RateLimit(endpoint),
		p.RequirePermission(requiredPermission),
	}
}

// EndpointForPath classifies a request path into a rate limit endpoint.
func EndpointForPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "auth"):
		return "auth"
	case strings.Contains(lower, "billing"):
		return "billing"
	case strings.Contains(lower, "report"):
		return "reports"
	default:
		return ratelimit.EndpointGlobal
	}
}

// SecurityMonitor scans the request and blocks lockouts and CRITICAL
// threats. Analysis failures never block traffic: they degrade to a
// fallback MEDIUM event and the request proceeds.
func (p *Pipeline) SecurityMonitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		tctx, _ := tenant.FromGin(c)

		events, errAnalyze := p.monitor.AnalyzeRequest(c.Request, tctx)
		if errAnalyze != nil {
			log.WithError(errAnalyze).Warn("pipeline: request analysis failed")
			p.monitor.LogAnalysisFailure(c.Request, tctx, errAnalyze)
			events = nil
		}

		c.Header("X-Security-Scan", "enabled")
		if len(events) > 0 {
			c.Header("X-Threats-Detected", strconv.Itoa(len(events)))
		}

		for _, event := range events {
			if event.Severity.BlocksRequest() {
				metrics.RequestsBlocked.WithLabelValues(reasonCriticalThreat).Inc()
				c.AbortWithStatusJSON(403, rejection{
					Error:   "Forbidden",
					Message: "Request blocked by security policy.",
				})
				return
			}
		}

		if p.monitor.IsIPLockedOut(c.Request) {
			retryAfter := int64(p.monitor.Config().LockoutDuration.Seconds())
			metrics.RequestsBlocked.WithLabelValues(reasonLockout).Inc()
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(429, rejection{
				Error:      "Too Many Requests",
				Message:    "Too many failed attempts. Try again later.",
				RetryAfter: retryAfter,
			})
			return
		}

		c.Next()
	}
}

// RateLimit enforces the effective limit for the endpoint class.
// Organization overrides win per endpoint; fetch errors fall back to
// defaults. A limiter-internal error fails open when SkipOnError is set
// and closed (503) otherwise.
func (p *Pipeline) RateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tctx, _ := tenant.FromGin(c)

		defaults := ratelimit.DefaultLimits(p.settings())
		limits := ratelimit.ResolveOrgLimits(c.Request.Context(), p.db, tctx.OrganizationID, defaults)
		cfg := ratelimit.ConfigForEndpoint(limits, endpoint)
		key := ratelimit.KeyForConfig(cfg, c.Request, tctx, endpoint)

		result, errCheck := p.limiter.Check(c.Request.Context(), key, cfg)
		if errCheck != nil {
			if cfg.SkipOnError {
				log.WithError(errCheck).Warn("pipeline: rate limiter failed, skipping check")
				c.Next()
				return
			}
			metrics.RequestsBlocked.WithLabelValues(reasonLimiterError).Inc()
			c.AbortWithStatusJSON(503, rejection{
				Error:   "Service Unavailable",
				Message: "Rate limiter unavailable.",
			})
			return
		}

		if cfg.Headers {
			c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.UnixMilli(), 10))
		}

		if !result.Allowed {
			retryAfter := retryAfterSeconds(result.Reset)
			message := cfg.Message
			if message == "" {
				message = "Too many requests, please try again later."
			}
			p.monitor.LogEvent(models.EventRateLimitExceeded, models.SeverityMedium, c.Request, tctx, endpoint)
			metrics.RequestsBlocked.WithLabelValues(reasonRateLimit).Inc()
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(429, rejection{
				Error:      "Too Many Requests",
				Message:    message,
				RetryAfter: retryAfter,
			})
			return
		}

		p.tracker.Record(tctx.OrganizationID, endpoint)
		c.Next()
	}
}

// RequirePermission gates the handler on one required permission.
// The wildcard grant passes every check.
func (p *Pipeline) RequirePermission(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if required == "" {
			c.Next()
			return
		}
		tctx, _ := tenant.FromGin(c)
		if !permissions.Has(tctx.Permissions, required) {
			p.monitor.LogEvent(models.EventPermissionDenied, models.SeverityMedium, c.Request, tctx, required)
			metrics.RequestsBlocked.WithLabelValues(reasonPermissionDenied).Inc()
			c.AbortWithStatusJSON(403, rejection{
				Error:   "Forbidden",
				Message: "Missing required permission.",
			})
			return
		}
		c.Next()
	}
}

// retryAfterSeconds converts a reset time into a whole-second retry hint.
func retryAfterSeconds(reset time.Time) int64 {
	seconds := int64(math.Ceil(time.Until(reset).Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

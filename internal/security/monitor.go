package security

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/metrics"
	"github.com/abhaytalreja/next-saas-sub007/internal/models"
	"github.com/abhaytalreja/next-saas-sub007/internal/tenant"

	"gorm.io/datatypes"
)

// Scan bounds. Body scanning reads at most maxScanBodyBytes; matched
// values are truncated before they land in event details.
const (
	maxScanBodyBytes  = 64 << 10
	maxDetailValueLen = 200
)

// Scan locations used for severity assignment.
const (
	locationURL    = "url"
	locationBody   = "body"
	locationHeader = "header"
)

// Monitor scans inbound requests for threat patterns and tracks
// brute-force lockouts per client IP.
type Monitor struct {
	cfg      Config
	detector *Detector
	lockouts *LockoutTracker
	sink     EventSink
	nowFn    func() time.Time
}

// NewMonitor constructs a Monitor with default dependencies when nil.
func NewMonitor(cfg Config, sink EventSink, nowFn func() time.Time) *Monitor {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Monitor{
		cfg:      cfg,
		detector: NewDetector(cfg.Enabled),
		lockouts: NewLockoutTracker(cfg.MaxFailedAttempts, cfg.LockoutDuration, nowFn),
		sink:     sink,
		nowFn:    nowFn,
	}
}

// Config returns the monitor's detection configuration.
func (m *Monitor) Config() Config {
	if m == nil {
		return DefaultConfig()
	}
	return m.cfg
}

// Lockouts exposes the tracker so the caller can start its sweeper.
func (m *Monitor) Lockouts() *LockoutTracker {
	if m == nil {
		return nil
	}
	return m.lockouts
}

// LockoutKeyForIP builds the brute-force tracking key for a client IP.
func LockoutKeyForIP(ip string) string { return "ip:" + ip }

// RecordFailedAttempt forwards to the lockout tracker.
func (m *Monitor) RecordFailedAttempt(key string) bool {
	if m == nil {
		return false
	}
	return m.lockouts.RecordFailedAttempt(key)
}

// IsIPLockedOut reports whether the request's client IP is locked out.
func (m *Monitor) IsIPLockedOut(r *http.Request) bool {
	if m == nil {
		return false
	}
	return m.lockouts.IsLockedOut(LockoutKeyForIP(tenant.ClientIP(r)))
}

// AnalyzeRequest scans the URL, body, and headers for threat patterns and
// persists every detected event before returning. It never panics; an
// internal failure yields an empty list and a non-nil error so the caller
// can log a fallback event.
func (m *Monitor) AnalyzeRequest(r *http.Request, tctx tenant.Context) (events []models.SecurityEvent, err error) {
	if m == nil || r == nil {
		return nil, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			events = nil
			err = fmt.Errorf("security: analysis panic: %v", rec)
		}
	}()

	// Scan the decoded URI so percent-encoded payloads are visible.
	uri := r.URL.RequestURI()
	if decoded, errDecode := url.QueryUnescape(uri); errDecode == nil {
		uri = decoded
	}
	events = append(events, m.scan(locationURL, uri, r, tctx)...)

	if body := m.readBody(r); body != "" {
		events = append(events, m.scan(locationBody, body, r, tctx)...)
	}

	for _, values := range r.Header {
		for _, value := range values {
			events = append(events, m.scan(locationHeader, value, r, tctx)...)
		}
	}

	if m.IsIPLockedOut(r) {
		events = append(events, m.newEvent(models.EventBruteForce, models.SeverityHigh, r, tctx, "lockout", tenant.ClientIP(r)))
	}

	for _, event := range events {
		metrics.ThreatsDetected.WithLabelValues(string(event.Type), string(event.Severity)).Inc()
		if m.sink != nil {
			m.sink.Log(event)
		}
	}
	return events, nil
}

// LogEvent records one pipeline-level event, e.g. a rejected request.
func (m *Monitor) LogEvent(eventType models.EventType, severity models.Severity, r *http.Request, tctx tenant.Context, detail string) {
	if m == nil || m.sink == nil || r == nil {
		return
	}
	event := m.newEvent(eventType, severity, r, tctx, "pipeline", detail)
	metrics.ThreatsDetected.WithLabelValues(string(event.Type), string(event.Severity)).Inc()
	m.sink.Log(event)
}

// LogAnalysisFailure records the fallback event for a failed analysis.
func (m *Monitor) LogAnalysisFailure(r *http.Request, tctx tenant.Context, analysisErr error) {
	if m == nil || m.sink == nil || analysisErr == nil {
		return
	}
	event := m.newEvent(models.EventSuspiciousActivity, models.SeverityMedium, r, tctx, "analysis", analysisErr.Error())
	metrics.ThreatsDetected.WithLabelValues(string(event.Type), string(event.Severity)).Inc()
	m.sink.Log(event)
}

// scan checks one value against every detector class. Severity depends on
// where the value came from: body content is a stronger signal than URLs,
// and header matches always rate MEDIUM.
func (m *Monitor) scan(location, value string, r *http.Request, tctx tenant.Context) []models.SecurityEvent {
	var events []models.SecurityEvent
	if m.detector.DetectSQLInjection(value) {
		severity := models.SeverityHigh
		switch location {
		case locationBody:
			severity = models.SeverityCritical
		case locationHeader:
			severity = models.SeverityMedium
		}
		events = append(events, m.newEvent(models.EventSQLInjection, severity, r, tctx, location, value))
	}
	if m.detector.DetectXSS(value) {
		severity := models.SeverityMedium
		if location == locationBody {
			severity = models.SeverityHigh
		}
		events = append(events, m.newEvent(models.EventXSS, severity, r, tctx, location, value))
	}
	if m.detector.DetectSuspiciousActivity(value) {
		severity := models.SeverityHigh
		if location == locationHeader {
			severity = models.SeverityMedium
		}
		events = append(events, m.newEvent(models.EventSuspiciousActivity, severity, r, tctx, location, value))
	}
	return events
}

// readBody returns the scannable request body, restoring it for the
// handler. Read failures are swallowed; monitoring must not break traffic.
func (m *Monitor) readBody(r *http.Request) string {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return ""
	}
	if r.Body == nil {
		return ""
	}
	read, errRead := io.ReadAll(io.LimitReader(r.Body, maxScanBodyBytes))
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(read), rest), rest}
	if errRead != nil {
		return ""
	}
	return string(read)
}

// newEvent builds one immutable event row.
func (m *Monitor) newEvent(eventType models.EventType, severity models.Severity, r *http.Request, tctx tenant.Context, location, value string) models.SecurityEvent {
	if len(value) > maxDetailValueLen {
		value = value[:maxDetailValueLen]
	}
	details, _ := json.Marshal(map[string]string{
		"location": location,
		"value":    value,
	})
	return models.SecurityEvent{
		Type:           eventType,
		Severity:       severity,
		OrganizationID: tctx.OrganizationID,
		UserID:         tctx.UserID,
		IP:             tenant.ClientIP(r),
		UserAgent:      r.Header.Get("User-Agent"),
		Endpoint:       r.Method + " " + r.URL.Path,
		Details:        datatypes.JSON(details),
		OccurredAt:     m.nowFn().UTC(),
	}
}

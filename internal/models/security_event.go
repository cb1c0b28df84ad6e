package models

import (
	"time"

	"gorm.io/datatypes"
)

// EventType classifies a detected security event.
type EventType string

// EventType constants define the detectable event classes.
const (
	// EventSQLInjection marks a SQL injection pattern match.
	EventSQLInjection EventType = "SQL_INJECTION_ATTEMPT"
	// EventXSS marks a cross-site scripting pattern match.
	EventXSS EventType = "XSS_ATTEMPT"
	// EventSuspiciousActivity marks traversal or probing activity.
	EventSuspiciousActivity EventType = "SUSPICIOUS_ACTIVITY"
	// EventBruteForce marks repeated failures or an active lockout.
	EventBruteForce EventType = "BRUTE_FORCE_ATTEMPT"
	// EventRateLimitExceeded marks a rejected rate-limited request.
	EventRateLimitExceeded EventType = "RATE_LIMIT_EXCEEDED"
	// EventPermissionDenied marks a failed permission check.
	EventPermissionDenied EventType = "PERMISSION_DENIED"
)

// Severity ranks how strongly an event signals an attack.
type Severity string

// Severity constants order event severities from LOW to CRITICAL.
const (
	// SeverityLow marks informational events.
	SeverityLow Severity = "LOW"
	// SeverityMedium marks events worth reviewing.
	SeverityMedium Severity = "MEDIUM"
	// SeverityHigh marks likely attacks; mirrored to the audit trail.
	SeverityHigh Severity = "HIGH"
	// SeverityCritical marks events that block the request outright.
	SeverityCritical Severity = "CRITICAL"
)

// BlocksRequest reports whether events of this severity reject the request.
func (s Severity) BlocksRequest() bool { return s == SeverityCritical }

// Audited reports whether events of this severity are mirrored to audit logs.
func (s Severity) Audited() bool { return s == SeverityHigh || s == SeverityCritical }

// SecurityEvent records one detected threat. Rows are append-only.
type SecurityEvent struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Type     EventType `gorm:"type:text;not null;index"` // Event class.
	Severity Severity  `gorm:"type:text;not null;index"` // Event severity.

	OrganizationID string `gorm:"type:text;index"` // Attributed organization, if known.
	UserID         string `gorm:"type:text"`       // Attributed user, if known.
	IP             string `gorm:"type:text;index"` // Client IP.
	UserAgent      string `gorm:"type:text"`       // Client User-Agent header.
	Endpoint       string `gorm:"type:text"`       // Request method and path.

	Details datatypes.JSON `gorm:"type:json"` // Free-form detection context.

	OccurredAt time.Time `gorm:"not null;index"`          // Detection timestamp.
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"` // Insert timestamp.
}

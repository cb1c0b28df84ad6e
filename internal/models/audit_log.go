package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog mirrors HIGH and CRITICAL security events into a separate trail.
type AuditLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Action         string `gorm:"type:text;not null"` // Audited action name.
	OrganizationID string `gorm:"type:text;index"`    // Attributed organization.
	UserID         string `gorm:"type:text"`          // Attributed user.

	Details datatypes.JSON `gorm:"type:json"` // Event payload snapshot.

	OccurredAt time.Time `gorm:"not null;index"`          // Source event timestamp.
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"` // Insert timestamp.
}

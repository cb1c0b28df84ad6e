package models

import "time"

// RateLimitOverride stores a per-organization limit for one endpoint.
// Overrides win per endpoint; endpoints without a row keep the defaults.
type RateLimitOverride struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrganizationID string `gorm:"type:text;not null;index:idx_rlo_org_endpoint,unique"` // Owning organization.
	Endpoint       string `gorm:"type:text;not null;index:idx_rlo_org_endpoint,unique"` // Endpoint identifier or "global".

	WindowMs    int64 `gorm:"not null"`              // Window length in milliseconds.
	MaxRequests int   `gorm:"not null"`              // Allowed requests per window.
	Enabled     bool  `gorm:"not null;default:true"` // Whether the override applies.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

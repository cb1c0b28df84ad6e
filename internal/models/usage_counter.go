package models

import "time"

// UsageCounter accumulates billable API calls per organization and bucket.
// Rows are increment-only within a daily period.
type UsageCounter struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrganizationID string `gorm:"type:text;not null;index:idx_usage_org_bucket_period,unique"` // Owning organization.
	Bucket         string `gorm:"type:text;not null;index:idx_usage_org_bucket_period,unique"` // Resource-type bucket.
	PeriodStart    string `gorm:"type:text;not null;index:idx_usage_org_bucket_period,unique"` // UTC day, YYYY-MM-DD.

	Count int64 `gorm:"not null;default:0"` // Accumulated calls.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

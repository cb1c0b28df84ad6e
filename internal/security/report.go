package security

import (
	"context"
	"fmt"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/models"

	"gorm.io/gorm"
)

// reportQueryTimeout bounds the aggregate queries for one report.
const reportQueryTimeout = 10 * time.Second

// topSourceIPLimit caps the source-IP breakdown.
const topSourceIPLimit = 10

// IPCount pairs a source IP with its event count.
type IPCount struct {
	IP    string `json:"ip"`
	Count int64  `json:"count"`
}

// Report aggregates stored security events over a trailing window.
type Report struct {
	OrganizationID string           `json:"organization_id"`
	Days           int              `json:"days"`
	TotalEvents    int64            `json:"total_events"`
	ByType         map[string]int64 `json:"by_type"`
	BySeverity     map[string]int64 `json:"by_severity"`
	TopSourceIPs   []IPCount        `json:"top_source_ips"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// GenerateReport aggregates events for the organization over the trailing
// window. A nil report means the data is unavailable, not that there were
// zero events.
func GenerateReport(ctx context.Context, db *gorm.DB, organizationID string, days int) (*Report, error) {
	if db == nil {
		return nil, fmt.Errorf("security report: nil db")
	}
	if days <= 0 {
		days = 7
	}
	if ctx == nil {
		ctx = context.Background()
	}
	queryCtx, cancel := context.WithTimeout(ctx, reportQueryTimeout)
	defer cancel()

	since := time.Now().UTC().AddDate(0, 0, -days)
	base := func() *gorm.DB {
		q := db.WithContext(queryCtx).Model(&models.SecurityEvent{}).
			Where("occurred_at >= ?", since)
		if organizationID != "" {
			q = q.Where("organization_id = ?", organizationID)
		}
		return q
	}

	report := &Report{
		OrganizationID: organizationID,
		Days:           days,
		ByType:         make(map[string]int64),
		BySeverity:     make(map[string]int64),
		GeneratedAt:    time.Now().UTC(),
	}

	if errCount := base().Count(&report.TotalEvents).Error; errCount != nil {
		return nil, fmt.Errorf("security report: count: %w", errCount)
	}

	type bucketRow struct {
		Bucket string
		Total  int64
	}

	var typeRows []bucketRow
	if errTypes := base().
		Select("type AS bucket, COUNT(*) AS total").
		Group("type").
		Scan(&typeRows).Error; errTypes != nil {
		return nil, fmt.Errorf("security report: by type: %w", errTypes)
	}
	for _, row := range typeRows {
		report.ByType[row.Bucket] = row.Total
	}

	var severityRows []bucketRow
	if errSeverities := base().
		Select("severity AS bucket, COUNT(*) AS total").
		Group("severity").
		Scan(&severityRows).Error; errSeverities != nil {
		return nil, fmt.Errorf("security report: by severity: %w", errSeverities)
	}
	for _, row := range severityRows {
		report.BySeverity[row.Bucket] = row.Total
	}

	var ipRows []bucketRow
	if errIPs := base().
		Select("ip AS bucket, COUNT(*) AS total").
		Where("ip <> ''").
		Group("ip").
		Order("total DESC").
		Limit(topSourceIPLimit).
		Scan(&ipRows).Error; errIPs != nil {
		return nil, fmt.Errorf("security report: by source ip: %w", errIPs)
	}
	for _, row := range ipRows {
		report.TopSourceIPs = append(report.TopSourceIPs, IPCount{IP: row.Bucket, Count: row.Total})
	}

	return report, nil
}

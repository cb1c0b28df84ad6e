package usage

import (
	"context"
	"strings"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/metrics"
	"github.com/abhaytalreja/next-saas-sub007/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Default sizing and timings for the usage writer.
const (
	// defaultQueueBuffer is the pending increment queue size.
	defaultQueueBuffer = 1024
	// writeTimeout bounds one counter upsert.
	writeTimeout = 5 * time.Second
)

// Buckets derived from endpoint substrings.
const (
	BucketBillingAPICalls  = "billing_api_calls"
	BucketSecurityAPICalls = "security_api_calls"
	BucketReportAPICalls   = "report_api_calls"
	BucketAPICalls         = "api_calls"
)

// BucketForEndpoint maps an endpoint to its billing bucket by substring.
func BucketForEndpoint(endpoint string) string {
	lower := strings.ToLower(endpoint)
	switch {
	case strings.Contains(lower, "billing"):
		return BucketBillingAPICalls
	case strings.Contains(lower, "security"), strings.Contains(lower, "audit"):
		return BucketSecurityAPICalls
	case strings.Contains(lower, "report"):
		return BucketReportAPICalls
	default:
		return BucketAPICalls
	}
}

type increment struct {
	organizationID string
	bucket         string
	period         string
}

// Tracker accumulates best-effort usage counters per organization and
// bucket. Increments are dispatched to a background writer; failures are
// logged and dropped, never surfaced to the request.
type Tracker struct {
	db    *gorm.DB
	nowFn func() time.Time
	queue chan increment
}

// NewTracker constructs a Tracker with default dependencies when nil.
func NewTracker(db *gorm.DB, nowFn func() time.Time) *Tracker {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Tracker{
		db:    db,
		nowFn: nowFn,
		queue: make(chan increment, defaultQueueBuffer),
	}
}

// Start launches the background writer until ctx is cancelled.
func (t *Tracker) Start(ctx context.Context) {
	if t == nil || t.db == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case inc := <-t.queue:
				t.write(inc)
			}
		}
	}()
}

// Record enqueues a counter increment for the endpoint's bucket.
// Must never fail the request: a full queue drops the increment.
func (t *Tracker) Record(organizationID, endpoint string) {
	if t == nil || t.db == nil || organizationID == "" {
		return
	}
	inc := increment{
		organizationID: organizationID,
		bucket:         BucketForEndpoint(endpoint),
		period:         t.nowFn().UTC().Format("2006-01-02"),
	}
	select {
	case t.queue <- inc:
	default:
		metrics.BackgroundDrops.WithLabelValues("usage_counters").Inc()
		log.WithField("organization_id", organizationID).Warn("usage: queue full, dropping increment")
	}
}

// write upserts one counter row, incrementing on conflict.
func (t *Tracker) write(inc increment) {
	writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	row := models.UsageCounter{
		OrganizationID: inc.organizationID,
		Bucket:         inc.bucket,
		PeriodStart:    inc.period,
		Count:          1,
	}
	if errUpsert := t.db.WithContext(writeCtx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}, {Name: "bucket"}, {Name: "period_start"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("count + 1"),
			"updated_at": t.nowFn().UTC(),
		}),
	}).Create(&row).Error; errUpsert != nil {
		metrics.BackgroundDrops.WithLabelValues("usage_counters").Inc()
		log.WithError(errUpsert).Warn("usage: failed to persist counter increment")
	}
}

// TotalForPeriod sums an organization's counters for one UTC day.
func (t *Tracker) TotalForPeriod(ctx context.Context, organizationID, period string) (map[string]int64, error) {
	if t == nil || t.db == nil {
		return nil, nil
	}
	var rows []models.UsageCounter
	if errFind := t.db.WithContext(ctx).
		Where("organization_id = ? AND period_start = ?", organizationID, period).
		Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Bucket] = row.Count
	}
	return out, nil
}

package security

import (
	"context"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/metrics"
	"github.com/abhaytalreja/next-saas-sub007/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Default sizing and timings for the event writer.
const (
	// defaultSinkBuffer is the pending event queue size.
	defaultSinkBuffer = 1024
	// sinkWriteTimeout bounds one event insert.
	sinkWriteTimeout = 2 * time.Second
)

// EventSink persists security events. Implementations must never
// propagate failures into the request path.
type EventSink interface {
	Log(event models.SecurityEvent)
}

// GormEventSink appends events to security_events and mirrors HIGH and
// CRITICAL events into audit_logs. Writes happen on a background worker;
// a full queue drops the event rather than blocking the caller.
type GormEventSink struct {
	db    *gorm.DB
	queue chan models.SecurityEvent
}

// NewGormEventSink constructs a GormEventSink.
func NewGormEventSink(db *gorm.DB) *GormEventSink {
	return &GormEventSink{
		db:    db,
		queue: make(chan models.SecurityEvent, defaultSinkBuffer),
	}
}

// Start launches the background writer until ctx is cancelled.
func (s *GormEventSink) Start(ctx context.Context) {
	if s == nil || s.db == nil {
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
			case event := <-s.queue:
				s.write(event)
			}
		}
	}()
}

// Log enqueues an event for persistence. Never blocks and never fails.
func (s *GormEventSink) Log(event models.SecurityEvent) {
	if s == nil || s.db == nil {
		return
	}
	select {
	case s.queue <- event:
	default:
		metrics.BackgroundDrops.WithLabelValues("security_events").Inc()
		log.WithField("type", event.Type).Warn("security: event queue full, dropping event")
	}
}

// write persists one event and its audit mirror when warranted.
func (s *GormEventSink) write(event models.SecurityEvent) {
	writeCtx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
	defer cancel()

	if errCreate := s.db.WithContext(writeCtx).Create(&event).Error; errCreate != nil {
		metrics.BackgroundDrops.WithLabelValues("security_events").Inc()
		log.WithError(errCreate).Warn("security: failed to persist event")
		return
	}
	if !event.Severity.Audited() {
		return
	}
	auditRow := models.AuditLog{
		Action:         "security_event:" + string(event.Type),
		OrganizationID: event.OrganizationID,
		UserID:         event.UserID,
		Details:        event.Details,
		OccurredAt:     event.OccurredAt,
	}
	if errAudit := s.db.WithContext(writeCtx).Create(&auditRow).Error; errAudit != nil {
		metrics.BackgroundDrops.WithLabelValues("audit_logs").Inc()
		log.WithError(errAudit).Warn("security: failed to mirror event to audit trail")
	}
}

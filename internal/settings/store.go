package settings

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Default timings for the settings refresh loop.
const (
	// defaultPollInterval controls how often the DB snapshot is refreshed.
	defaultPollInterval = 15 * time.Second
	// defaultQueryTimeout bounds a single snapshot query.
	defaultQueryTimeout = 5 * time.Second
)

// Store caches the settings table as an in-memory snapshot.
// Reads never touch the database; a poll loop refreshes the snapshot.
type Store struct {
	db           *gorm.DB
	pollInterval time.Duration

	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// NewStore constructs a Store backed by the given connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		pollInterval: defaultPollInterval,
		values:       make(map[string]json.RawMessage),
	}
}

// Refresh replaces the snapshot with the current table contents.
func (s *Store) Refresh(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	queryCtx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var rows []models.Setting
	if errFind := s.db.WithContext(queryCtx).Find(&rows).Error; errFind != nil {
		return errFind
	}
	next := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		next[row.Key] = json.RawMessage(row.Value)
	}
	s.mu.Lock()
	s.values = next
	s.mu.Unlock()
	return nil
}

// Start launches the refresh loop until the context is cancelled.
func (s *Store) Start(ctx context.Context) {
	if s == nil || s.db == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if errRefresh := s.Refresh(ctx); errRefresh != nil {
					log.WithError(errRefresh).Warn("settings: refresh failed, keeping previous snapshot")
				}
			}
		}
	}()
	log.Infof("settings store started (poll_interval=%s)", s.pollInterval)
}

// Value returns the raw JSON value for a key from the snapshot.
func (s *Store) Value(key string) (json.RawMessage, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.values[key]
	return raw, ok
}

// Int returns the parsed non-negative integer for a key, or the default.
func (s *Store) Int(key string, def int) int {
	raw, ok := s.Value(key)
	if !ok {
		return def
	}
	parsed, okParse := ParseNonNegativeInt(raw)
	if !okParse {
		return def
	}
	return parsed
}

// Bool returns the parsed boolean for a key, or the default.
func (s *Store) Bool(key string, def bool) bool {
	raw, ok := s.Value(key)
	if !ok {
		return def
	}
	parsed, okParse := ParseBool(raw)
	if !okParse {
		return def
	}
	return parsed
}

// String returns the parsed string for a key, or the default.
func (s *Store) String(key string, def string) string {
	raw, ok := s.Value(key)
	if !ok {
		return def
	}
	parsed, okParse := ParseString(raw)
	if !okParse {
		return def
	}
	return parsed
}

package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/models"
	internalsettings "github.com/abhaytalreja/next-saas-sub007/internal/settings"
	"gorm.io/gorm"
)

// Migrate runs database migrations and seeds default settings.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.SecurityEvent{},
		&models.AuditLog{},
		&models.RateLimitOverride{},
		&models.UsageCounter{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return seedDefaultSettings(conn)
}

// seedDefaultSettings inserts settings rows that are missing or empty.
func seedDefaultSettings(conn *gorm.DB) error {
	if errSeed := ensureIntSetting(conn, internalsettings.RateLimitWindowMsKey, internalsettings.DefaultRateLimitWindowMs); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureIntSetting(conn, internalsettings.RateLimitMaxRequestsKey, internalsettings.DefaultRateLimitMaxRequests); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureBoolSetting(conn, internalsettings.RateLimitSkipOnErrorKey, internalsettings.DefaultRateLimitSkipOnError); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureBoolSetting(conn, internalsettings.ThreatDetectionEnabledKey, internalsettings.DefaultThreatDetectionEnabled); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureIntSetting(conn, internalsettings.MaxFailedAttemptsKey, internalsettings.DefaultMaxFailedAttempts); errSeed != nil {
		return errSeed
	}
	return ensureIntSetting(conn, internalsettings.LockoutDurationSecondsKey, internalsettings.DefaultLockoutDurationSeconds)
}

// ensureIntSetting ensures an integer setting exists and defaults when empty.
func ensureIntSetting(conn *gorm.DB, key string, value int) error {
	payload, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("db: marshal %s setting: %w", key, errMarshal)
	}
	return ensureRawSetting(conn, key, payload)
}

// ensureBoolSetting ensures a boolean setting exists and defaults when empty.
func ensureBoolSetting(conn *gorm.DB, key string, value bool) error {
	payload, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("db: marshal %s setting: %w", key, errMarshal)
	}
	return ensureRawSetting(conn, key, payload)
}

// ensureRawSetting writes the raw value only when the row is missing or empty.
func ensureRawSetting(conn *gorm.DB, key string, rawValue json.RawMessage) error {
	var existing models.Setting
	if errFind := conn.Where("key = ?", key).First(&existing).Error; errFind == nil {
		trimmed := strings.TrimSpace(string(existing.Value))
		if len(existing.Value) == 0 || trimmed == "" || trimmed == "null" {
			if errUpdate := conn.Model(&existing).Updates(map[string]any{
				"value":      rawValue,
				"updated_at": time.Now().UTC(),
			}).Error; errUpdate != nil {
				return fmt.Errorf("db: update %s setting: %w", key, errUpdate)
			}
		}
		return nil
	} else if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query %s setting: %w", key, errFind)
	}

	setting := models.Setting{
		Key:       key,
		Value:     []byte(rawValue),
		UpdatedAt: time.Now().UTC(),
	}
	if errCreate := conn.Create(&setting).Error; errCreate != nil {
		return fmt.Errorf("db: create %s setting: %w", key, errCreate)
	}
	return nil
}

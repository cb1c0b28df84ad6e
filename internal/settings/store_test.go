package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/abhaytalreja/next-saas-sub007/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "guard-test.db")
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seed(t *testing.T, conn *gorm.DB, key, value string) {
	t.Helper()
	row := models.Setting{Key: key, Value: datatypes.JSON(value)}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("seed %s: %v", key, errCreate)
	}
}

func TestStoreRefreshAndGetters(t *testing.T) {
	conn := openTestDB(t)
	seed(t, conn, RateLimitWindowMsKey, `30000`)
	seed(t, conn, RateLimitRedisEnabledKey, `"true"`)
	seed(t, conn, RateLimitRedisAddrKey, `"localhost:6379"`)
	seed(t, conn, MaxFailedAttemptsKey, `"7"`)

	store := NewStore(conn)
	if errRefresh := store.Refresh(context.Background()); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}

	if got := store.Int(RateLimitWindowMsKey, 0); got != 30000 {
		t.Fatalf("window = %d, want 30000", got)
	}
	if !store.Bool(RateLimitRedisEnabledKey, false) {
		t.Fatalf("expected redis enabled")
	}
	if got := store.String(RateLimitRedisAddrKey, ""); got != "localhost:6379" {
		t.Fatalf("addr = %q", got)
	}
	if got := store.Int(MaxFailedAttemptsKey, 0); got != 7 {
		t.Fatalf("max attempts = %d, want 7", got)
	}
	// Missing keys fall back to the caller's default.
	if got := store.Int(LockoutDurationSecondsKey, 900); got != 900 {
		t.Fatalf("missing key default = %d, want 900", got)
	}
}

func TestStoreRefreshReplacesSnapshot(t *testing.T) {
	conn := openTestDB(t)
	seed(t, conn, RateLimitMaxRequestsKey, `100`)

	store := NewStore(conn)
	if errRefresh := store.Refresh(context.Background()); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	if got := store.Int(RateLimitMaxRequestsKey, 0); got != 100 {
		t.Fatalf("max = %d, want 100", got)
	}

	if errUpdate := conn.Model(&models.Setting{}).
		Where("key = ?", RateLimitMaxRequestsKey).
		Update("value", datatypes.JSON(`250`)).Error; errUpdate != nil {
		t.Fatalf("update: %v", errUpdate)
	}

	// Stale until the next refresh.
	if got := store.Int(RateLimitMaxRequestsKey, 0); got != 100 {
		t.Fatalf("pre-refresh max = %d, want 100", got)
	}
	if errRefresh := store.Refresh(context.Background()); errRefresh != nil {
		t.Fatalf("second refresh: %v", errRefresh)
	}
	if got := store.Int(RateLimitMaxRequestsKey, 0); got != 250 {
		t.Fatalf("post-refresh max = %d, want 250", got)
	}
}

func TestStoreNilReceivers(t *testing.T) {
	var store *Store
	if errRefresh := store.Refresh(context.Background()); errRefresh != nil {
		t.Fatalf("nil store refresh: %v", errRefresh)
	}
	if got := store.Int("any", 42); got != 42 {
		t.Fatalf("nil store int = %d, want default", got)
	}
}

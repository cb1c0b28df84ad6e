package db

import (
	"path/filepath"
	"testing"

	"github.com/abhaytalreja/next-saas-sub007/internal/models"
	internalsettings "github.com/abhaytalreja/next-saas-sub007/internal/settings"

	"gorm.io/datatypes"
)

func TestMigrateSeedsDefaults(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "guard-test.db")
	conn, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	var row models.Setting
	if errFind := conn.Where("key = ?", internalsettings.RateLimitWindowMsKey).First(&row).Error; errFind != nil {
		t.Fatalf("find seeded setting: %v", errFind)
	}
	if string(row.Value) != "60000" {
		t.Fatalf("seeded window = %s, want 60000", row.Value)
	}

	// A second migrate keeps existing values.
	if errUpdate := conn.Model(&models.Setting{}).
		Where("key = ?", internalsettings.RateLimitWindowMsKey).
		Update("value", datatypes.JSON(`30000`)).Error; errUpdate != nil {
		t.Fatalf("update: %v", errUpdate)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}
	if errFind := conn.Where("key = ?", internalsettings.RateLimitWindowMsKey).First(&row).Error; errFind != nil {
		t.Fatalf("refind: %v", errFind)
	}
	if string(row.Value) != "30000" {
		t.Fatalf("value after re-migrate = %s, want preserved 30000", row.Value)
	}
}

func TestDialectName(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "guard-test.db")
	conn, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !IsSQLite(conn) {
		t.Fatalf("expected sqlite dialect, got %s", DialectName(conn))
	}
}

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupSettingsServiceTest(t *testing.T) *SettingsService {
	t.Helper()
	dsn := fmt.Sprintf("file:settings_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	models.DB = db
	return NewSettingsService(repository.NewSettingRepository(db))
}

func TestGlobalConfigDefaults(t *testing.T) {
	settings := setupSettingsServiceTest(t)

	cfg, err := settings.GlobalConfig()
	if err != nil {
		t.Fatalf("GlobalConfig failed: %v", err)
	}
	if got := cfg.RiderSharePercent.String(); got != "66.66" {
		t.Fatalf("rider share = %s, want 66.66", got)
	}
	if got := cfg.PlatformSharePercent.String(); got != "33.34" {
		t.Fatalf("platform share = %s, want 33.34", got)
	}
	if got := cfg.CashCustodyLimit.String(); got != "300" {
		t.Fatalf("custody limit = %s, want 300", got)
	}
}

func TestUpdateSettingOverridesDefault(t *testing.T) {
	settings := setupSettingsServiceTest(t)

	if err := settings.UpdateSetting(SettingKeyCashCustodyLimit, decimal.NewFromInt(450)); err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}
	if err := settings.UpdateSetting(SettingKeyRiderSharePercent, decimal.RequireFromString("70")); err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}

	cfg, err := settings.GlobalConfig()
	if err != nil {
		t.Fatalf("GlobalConfig failed: %v", err)
	}
	if got := cfg.CashCustodyLimit.String(); got != "450" {
		t.Fatalf("custody limit = %s, want 450", got)
	}
	if got := cfg.RiderSharePercent.String(); got != "70" {
		t.Fatalf("rider share = %s, want 70", got)
	}
	// Untouched keys keep their defaults.
	if got := cfg.PlatformSharePercent.String(); got != "33.34" {
		t.Fatalf("platform share = %s, want 33.34", got)
	}

	// Repeated updates overwrite, not duplicate.
	if err := settings.UpdateSetting(SettingKeyCashCustodyLimit, decimal.NewFromInt(500)); err != nil {
		t.Fatalf("repeat UpdateSetting failed: %v", err)
	}
	cfg, _ = settings.GlobalConfig()
	if got := cfg.CashCustodyLimit.String(); got != "500" {
		t.Fatalf("custody limit = %s, want 500", got)
	}
}

func TestUpdateSettingRejectsUnknownKey(t *testing.T) {
	settings := setupSettingsServiceTest(t)
	if err := settings.UpdateSetting("max_riders", decimal.NewFromInt(10)); err == nil {
		t.Fatalf("expected error for unknown setting key")
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/somar/dispatch/internal/cache"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"

	"github.com/shopspring/decimal"
)

// Setting keys for the global dispatch configuration.
const (
	SettingKeyRiderSharePercent    = "rider_share_percent"
	SettingKeyPlatformSharePercent = "platform_share_percent"
	SettingKeyCashCustodyLimit     = "cash_custody_limit"
)

// Defaults applied when a setting row is absent.
var (
	defaultRiderSharePercent    = decimal.RequireFromString("66.66")
	defaultPlatformSharePercent = decimal.RequireFromString("33.34")
	defaultCashCustodyLimit     = decimal.NewFromInt(300)
)

const (
	globalConfigCacheKey = "settings:global"
	globalConfigCacheTTL = 30 * time.Second
)

// GlobalConfig is the resolved dispatch configuration.
type GlobalConfig struct {
	RiderSharePercent    decimal.Decimal `json:"rider_share_percent"`
	PlatformSharePercent decimal.Decimal `json:"platform_share_percent"`
	CashCustodyLimit     decimal.Decimal `json:"cash_custody_limit"`
}

// SplitConfig projects the split percentages out of the global config.
func (c GlobalConfig) SplitConfig() SplitConfig {
	return SplitConfig{
		RiderSharePercent:    c.RiderSharePercent,
		PlatformSharePercent: c.PlatformSharePercent,
	}
}

// SettingsService resolves and updates the global dispatch configuration.
type SettingsService struct {
	settingRepo repository.SettingRepository
}

// NewSettingsService creates the settings service.
func NewSettingsService(settingRepo repository.SettingRepository) *SettingsService {
	return &SettingsService{settingRepo: settingRepo}
}

// GlobalConfig returns the configuration with per-key fallbacks.
func (s *SettingsService) GlobalConfig() (GlobalConfig, error) {
	ctx := context.Background()
	var cached GlobalConfig
	if hit, err := cache.GetJSON(ctx, globalConfigCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	cfg := GlobalConfig{
		RiderSharePercent:    defaultRiderSharePercent,
		PlatformSharePercent: defaultPlatformSharePercent,
		CashCustodyLimit:     defaultCashCustodyLimit,
	}

	entries := []struct {
		key    string
		target *decimal.Decimal
	}{
		{SettingKeyRiderSharePercent, &cfg.RiderSharePercent},
		{SettingKeyPlatformSharePercent, &cfg.PlatformSharePercent},
		{SettingKeyCashCustodyLimit, &cfg.CashCustodyLimit},
	}
	for _, entry := range entries {
		setting, err := s.settingRepo.GetByKey(entry.key)
		if err != nil {
			return GlobalConfig{}, err
		}
		if setting == nil {
			continue
		}
		value, ok := decimalFromSetting(setting)
		if ok {
			*entry.target = value
		}
	}
	_ = cache.SetJSON(ctx, globalConfigCacheKey, cfg, globalConfigCacheTTL)
	return cfg, nil
}

// UpdateSetting stores one configuration value.
func (s *SettingsService) UpdateSetting(key string, value decimal.Decimal) error {
	switch key {
	case SettingKeyRiderSharePercent, SettingKeyPlatformSharePercent, SettingKeyCashCustodyLimit:
	default:
		return fmt.Errorf("unknown setting key: %s", key)
	}
	if _, err := s.settingRepo.Upsert(key, models.JSON{"value": value.String()}); err != nil {
		return err
	}
	_ = cache.Del(context.Background(), globalConfigCacheKey)
	return nil
}

func decimalFromSetting(setting *models.Setting) (decimal.Decimal, bool) {
	if setting == nil || setting.ValueJSON == nil {
		return decimal.Decimal{}, false
	}
	raw, ok := setting.ValueJSON["value"]
	if !ok {
		return decimal.Decimal{}, false
	}
	switch v := raw.(type) {
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return parsed, true
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	default:
		return decimal.Decimal{}, false
	}
}

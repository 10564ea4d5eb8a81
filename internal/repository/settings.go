package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/acwadtec/cashapp-backend/internal/model"
)

var ErrSettingNotFound = errors.New("setting not found")

func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = $1", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
	`, key, value)
	return err
}

func (r *Repository) GetSettingFloat(ctx context.Context, key string) (float64, error) {
	value, err := r.GetSetting(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(value, 64)
}

// settingFloatOr reads a float setting, falling back to a default when
// the key is absent.
func (r *Repository) settingFloatOr(ctx context.Context, key string, def float64) (float64, error) {
	value, err := r.GetSettingFloat(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return def, nil
		}
		return 0, err
	}
	return value, nil
}

// GetReferralSettings assembles the commission configuration, using
// the documented defaults for any key an admin has not set.
func (r *Repository) GetReferralSettings(ctx context.Context) (*model.ReferralSettings, error) {
	settings := model.DefaultReferralSettings()

	fields := []struct {
		key string
		dst *float64
	}{
		{"referral_level1_points", &settings.Level1Points},
		{"referral_level2_points", &settings.Level2Points},
		{"referral_level3_points", &settings.Level3Points},
		{"team_earnings_level1_percent", &settings.Level1TeamPercent},
		{"team_earnings_level2_percent", &settings.Level2TeamPercent},
		{"team_earnings_level3_percent", &settings.Level3TeamPercent},
	}
	for _, f := range fields {
		value, err := r.settingFloatOr(ctx, f.key, *f.dst)
		if err != nil {
			return nil, err
		}
		*f.dst = value
	}

	return &settings, nil
}

func (r *Repository) GetGamificationMultipliers(ctx context.Context) (*model.GamificationMultipliers, error) {
	multipliers := model.DefaultGamificationMultipliers()

	referral, err := r.settingFloatOr(ctx, "gamification_referral_multiplier", multipliers.ReferralPoints)
	if err != nil {
		return nil, err
	}
	profit, err := r.settingFloatOr(ctx, "gamification_profit_points_rate", multipliers.ProfitPoints)
	if err != nil {
		return nil, err
	}

	multipliers.ReferralPoints = referral
	multipliers.ProfitPoints = profit
	return &multipliers, nil
}

func (r *Repository) GetAllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryxContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// ReferralEdge links a referred user to an upstream referrer. Exactly
// one edge may exist per (referred, level) pair; rows are created once
// at registration and never modified.
type ReferralEdge struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ReferrerID   int64     `json:"referrer_id" db:"referrer_id"`
	ReferredID   int64     `json:"referred_id" db:"referred_id"`
	Level        int       `json:"level" db:"level"`
	PointsEarned float64   `json:"points_earned" db:"points_earned"`
	ReferralCode string    `json:"referral_code" db:"referral_code"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Default signup commission points per chain level.
const (
	DefaultLevel1Points = 100.0
	DefaultLevel2Points = 50.0
	DefaultLevel3Points = 25.0
)

// Default share of a referred user's profit credited upstream as team
// earnings, percent per level.
const (
	DefaultLevel1TeamPercent = 5.0
	DefaultLevel2TeamPercent = 2.0
	DefaultLevel3TeamPercent = 1.0
)

type ReferralSettings struct {
	Level1Points      float64 `json:"level1_points"`
	Level2Points      float64 `json:"level2_points"`
	Level3Points      float64 `json:"level3_points"`
	Level1TeamPercent float64 `json:"level1_team_percent"`
	Level2TeamPercent float64 `json:"level2_team_percent"`
	Level3TeamPercent float64 `json:"level3_team_percent"`
}

func DefaultReferralSettings() ReferralSettings {
	return ReferralSettings{
		Level1Points:      DefaultLevel1Points,
		Level2Points:      DefaultLevel2Points,
		Level3Points:      DefaultLevel3Points,
		Level1TeamPercent: DefaultLevel1TeamPercent,
		Level2TeamPercent: DefaultLevel2TeamPercent,
		Level3TeamPercent: DefaultLevel3TeamPercent,
	}
}

// PointsForLevel returns the signup commission for the given chain
// level, zero beyond the supported depth.
func (s ReferralSettings) PointsForLevel(level int) float64 {
	switch level {
	case 1:
		return s.Level1Points
	case 2:
		return s.Level2Points
	case 3:
		return s.Level3Points
	}
	return 0
}

// TeamPercentForLevel returns the team-earnings share for the given
// chain level, zero beyond the supported depth.
func (s ReferralSettings) TeamPercentForLevel(level int) float64 {
	switch level {
	case 1:
		return s.Level1TeamPercent
	case 2:
		return s.Level2TeamPercent
	case 3:
		return s.Level3TeamPercent
	}
	return 0
}

// GamificationMultipliers scale point awards. ReferralPoints scales the
// one-time signup commission; ProfitPoints awards points per unit of
// credited profit (0 disables).
type GamificationMultipliers struct {
	ReferralPoints float64 `json:"referral_points"`
	ProfitPoints   float64 `json:"profit_points"`
}

func DefaultGamificationMultipliers() GamificationMultipliers {
	return GamificationMultipliers{ReferralPoints: 1, ProfitPoints: 0}
}

type ReferralStats struct {
	TotalReferrals int     `json:"total_referrals" db:"total_referrals"`
	PointsEarned   float64 `json:"points_earned" db:"points_earned"`
}

package model

import (
	"time"
)

type User struct {
	ID            int64     `json:"id" db:"id"`
	Balance       float64   `json:"balance" db:"balance"`
	BonusBalance  float64   `json:"bonus_balance" db:"bonus_balance"`
	TeamEarnings  float64   `json:"team_earnings" db:"team_earnings"`
	TotalPoints   float64   `json:"total_points" db:"total_points"`
	ReferralCount int       `json:"referral_count" db:"referral_count"`
	ReferralCode  string    `json:"referral_code" db:"referral_code"`
	ReferredBy    *string   `json:"referred_by,omitempty" db:"referred_by"` // referral code used at signup, set once
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// BalanceType names one of the four fungible balances a user holds.
type BalanceType string

const (
	BalanceTypeMain         BalanceType = "balance"
	BalanceTypeBonuses      BalanceType = "bonuses"
	BalanceTypeTeamEarnings BalanceType = "team_earnings"
	BalanceTypeTotalPoints  BalanceType = "total_points"
)

func (b BalanceType) Valid() bool {
	switch b {
	case BalanceTypeMain, BalanceTypeBonuses, BalanceTypeTeamEarnings, BalanceTypeTotalPoints:
		return true
	}
	return false
}

// BalanceFor returns the current amount held in the given balance.
func (u *User) BalanceFor(t BalanceType) float64 {
	switch t {
	case BalanceTypeMain:
		return u.Balance
	case BalanceTypeBonuses:
		return u.BonusBalance
	case BalanceTypeTeamEarnings:
		return u.TeamEarnings
	case BalanceTypeTotalPoints:
		return u.TotalPoints
	}
	return 0
}

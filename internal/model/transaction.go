package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeDailyProfit            TransactionType = "daily_profit"
	TransactionTypeMonthlyProfit          TransactionType = "monthly_profit"
	TransactionTypeTeamEarnings           TransactionType = "team_earnings"
	TransactionTypeReferralPoints         TransactionType = "referral_points"
	TransactionTypeProfitPoints           TransactionType = "profit_points"
	TransactionTypeBalanceInvestment      TransactionType = "balance_investment"
	TransactionTypeBonusesInvestment      TransactionType = "bonuses_investment"
	TransactionTypeTeamEarningsInvestment TransactionType = "team_earnings_investment"
	TransactionTypeTotalPointsInvestment  TransactionType = "total_points_investment"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is one immutable ledger entry. SourceUserID records whose
// activity generated the credit (team earnings, referral points), and
// ReferralLevel carries the chain distance as a typed field rather than
// text embedded in the description.
type Transaction struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	UserID        int64             `json:"user_id" db:"user_id"`
	Type          TransactionType   `json:"type" db:"type"`
	Amount        float64           `json:"amount" db:"amount"` // positive = credit, negative = debit
	Status        TransactionStatus `json:"status" db:"status"`
	SourceUserID  *int64            `json:"source_user_id,omitempty" db:"source_user_id"`
	ReferralLevel *int              `json:"referral_level,omitempty" db:"referral_level"`
	ReferenceID   *uuid.UUID        `json:"reference_id,omitempty" db:"reference_id"`
	Description   *string           `json:"description,omitempty" db:"description"`
	BalanceBefore float64           `json:"balance_before" db:"balance_before"`
	BalanceAfter  float64           `json:"balance_after" db:"balance_after"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

// InvestmentTransactionType maps the funding balance of a certificate
// join to the transaction type recorded for its debit.
func InvestmentTransactionType(t BalanceType) TransactionType {
	switch t {
	case BalanceTypeBonuses:
		return TransactionTypeBonusesInvestment
	case BalanceTypeTeamEarnings:
		return TransactionTypeTeamEarningsInvestment
	case BalanceTypeTotalPoints:
		return TransactionTypeTotalPointsInvestment
	}
	return TransactionTypeBalanceInvestment
}

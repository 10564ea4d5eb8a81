package model

import (
	"time"

	"github.com/google/uuid"
)

type InvestmentCertificate struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	MonthlyProfit        float64   `json:"monthly_profit" db:"monthly_profit"`
	Cost                 float64   `json:"cost" db:"cost"`
	Active               bool      `json:"active" db:"active"`
	ProfitDurationMonths int       `json:"profit_duration_months" db:"profit_duration_months"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// CertificateJoin mirrors OfferJoin with the funding balance recorded
// and a monthly rather than daily profit cadence. There is no fixed
// maturity; NextProfitDate governs the next credit.
type CertificateJoin struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	UserID         int64       `json:"user_id" db:"user_id"`
	CertificateID  uuid.UUID   `json:"certificate_id" db:"certificate_id"`
	BalanceType    BalanceType `json:"balance_type" db:"balance_type"`
	Amount         float64     `json:"amount" db:"amount"`
	Status         JoinStatus  `json:"status" db:"status"`
	JoinedAt       time.Time   `json:"joined_at" db:"joined_at"`
	ApprovedAt     *time.Time  `json:"approved_at,omitempty" db:"approved_at"`
	NextProfitDate *time.Time  `json:"next_profit_date,omitempty" db:"next_profit_date"`
	ProfitsPaid    int         `json:"profits_paid" db:"profits_paid"`
}

func (j *CertificateJoin) IsTerminal() bool {
	return j.Status == JoinStatusRejected || j.Status == JoinStatusWithdrawn
}

// ProfitDue reports whether the next monthly credit has come due.
func (j *CertificateJoin) ProfitDue(now time.Time) bool {
	if j.Status != JoinStatusApproved || j.NextProfitDate == nil {
		return false
	}
	return !now.Before(*j.NextProfitDate)
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// JoinStatus is the raw, stored lifecycle state of an offer or
// certificate join. Display status is derived, never stored.
type JoinStatus string

const (
	JoinStatusPending   JoinStatus = "pending"
	JoinStatusApproved  JoinStatus = "approved"
	JoinStatusRejected  JoinStatus = "rejected"
	JoinStatusWithdrawn JoinStatus = "withdrawn"
)

// DerivedStatus is the runtime status computed from raw status, offer
// activity and expiration.
type DerivedStatus string

const (
	DerivedStatusPending  DerivedStatus = "pending"
	DerivedStatusActive   DerivedStatus = "active"
	DerivedStatusInactive DerivedStatus = "inactive"
)

const (
	// AccrualWindow is the fixed period, anchored at the profit anchor,
	// after which one daily profit credit becomes due.
	AccrualWindow = 24 * time.Hour

	// OfferMaturity is the fixed lifetime of an approved offer join,
	// measured from approval. Past it the join never accrues again.
	OfferMaturity = 30 * 24 * time.Hour
)

type Offer struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	DailyProfit   float64    `json:"daily_profit" db:"daily_profit"`
	MonthlyProfit float64    `json:"monthly_profit" db:"monthly_profit"`
	Cost          float64    `json:"cost" db:"cost"`
	Active        bool       `json:"active" db:"active"`
	Deadline      *time.Time `json:"deadline,omitempty" db:"deadline"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// AcceptsJoins reports whether new joins are allowed for this offer.
func (o *Offer) AcceptsJoins(now time.Time) bool {
	if !o.Active {
		return false
	}
	if o.Deadline != nil && !now.Before(*o.Deadline) {
		return false
	}
	return true
}

type OfferJoin struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       int64      `json:"user_id" db:"user_id"`
	OfferID      uuid.UUID  `json:"offer_id" db:"offer_id"`
	Status       JoinStatus `json:"status" db:"status"`
	JoinedAt     time.Time  `json:"joined_at" db:"joined_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	LastProfitAt *time.Time `json:"last_profit_at,omitempty" db:"last_profit_at"`
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (j *OfferJoin) IsTerminal() bool {
	return j.Status == JoinStatusRejected || j.Status == JoinStatusWithdrawn
}

// IsExpired reports whether the join has passed its fixed maturity.
// Pure function of stored timestamps; there is no stored expired flag.
func (j *OfferJoin) IsExpired(now time.Time) bool {
	if j.ApprovedAt == nil {
		return false
	}
	return !now.Before(j.ApprovedAt.Add(OfferMaturity))
}

// ProfitAnchor returns the timestamp the current accrual window is
// measured from: the last credit, or approval if none happened yet.
func (j *OfferJoin) ProfitAnchor() *time.Time {
	if j.LastProfitAt != nil {
		return j.LastProfitAt
	}
	return j.ApprovedAt
}

// DerivedStatus computes the runtime status. Rejected and withdrawn
// joins display as inactive; approved joins go inactive once expired or
// once the offer is switched off.
func (j *OfferJoin) DerivedStatus(offer *Offer, now time.Time) DerivedStatus {
	switch j.Status {
	case JoinStatusPending:
		return DerivedStatusPending
	case JoinStatusApproved:
		if j.IsExpired(now) || !offer.Active {
			return DerivedStatusInactive
		}
		return DerivedStatusActive
	}
	return DerivedStatusInactive
}

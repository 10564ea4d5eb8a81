package model

import (
	"time"

	"github.com/google/uuid"
)

// DailyProfitRecord is one credited accrual window for an offer join.
// Rows are immutable once created; at most one exists per join per
// window, anchored at approval time.
type DailyProfitRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OfferJoinID uuid.UUID `json:"offer_join_id" db:"offer_join_id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Amount      float64   `json:"amount" db:"amount"`
	ProfitDate  time.Time `json:"profit_date" db:"profit_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

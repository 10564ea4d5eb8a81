package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/acwadtec/cashapp-backend/internal/model"
)

var ErrOfferNotFound = errors.New("offer not found")

func (r *Repository) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.GetContext(ctx, &offer, "SELECT * FROM offers WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *Repository) ListOffers(ctx context.Context, activeOnly bool) ([]model.Offer, error) {
	var offers []model.Offer
	query := "SELECT * FROM offers ORDER BY created_at DESC"
	if activeOnly {
		query = "SELECT * FROM offers WHERE active = TRUE ORDER BY created_at DESC"
	}
	err := r.db.SelectContext(ctx, &offers, query)
	return offers, err
}

func (r *Repository) CreateOffer(ctx context.Context, offer *model.Offer) error {
	query := `
		INSERT INTO offers (name, daily_profit, monthly_profit, cost, active, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		offer.Name,
		offer.DailyProfit,
		offer.MonthlyProfit,
		offer.Cost,
		offer.Active,
		offer.Deadline,
	).Scan(&offer.ID, &offer.CreatedAt)
}

package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/acwadtec/cashapp-backend/internal/model"
)

func (r *Repository) GetProfitRecords(ctx context.Context, joinID uuid.UUID) ([]model.DailyProfitRecord, error) {
	var records []model.DailyProfitRecord
	query := `
		SELECT * FROM daily_profit_records
		WHERE offer_join_id = $1
		ORDER BY profit_date`
	err := r.db.SelectContext(ctx, &records, query, joinID)
	return records, err
}

// TotalProfit sums the credited profit records for a join. This is the
// canonical earned-to-date figure; it reflects only credits that
// actually happened, never elapsed time.
func (r *Repository) TotalProfit(ctx context.Context, joinID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(amount), 0) FROM daily_profit_records WHERE offer_join_id = $1",
		joinID)
	return total, err
}

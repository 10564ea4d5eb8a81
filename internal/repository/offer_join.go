package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acwadtec/cashapp-backend/internal/model"
)

var ErrOfferJoinNotFound = errors.New("offer join not found")

func (r *Repository) GetOfferJoin(ctx context.Context, id uuid.UUID) (*model.OfferJoin, error) {
	var join model.OfferJoin
	err := r.db.GetContext(ctx, &join, "SELECT * FROM offer_joins WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferJoinNotFound
		}
		return nil, err
	}
	return &join, nil
}

func (r *Repository) GetUserOfferJoins(ctx context.Context, userID int64) ([]model.OfferJoin, error) {
	var joins []model.OfferJoin
	query := "SELECT * FROM offer_joins WHERE user_id = $1 ORDER BY joined_at DESC"
	err := r.db.SelectContext(ctx, &joins, query, userID)
	return joins, err
}

// FindCurrentJoin returns the user's latest non-withdrawn join for an
// offer, if any. One such join per offer per user is allowed.
func (r *Repository) FindCurrentJoin(ctx context.Context, userID int64, offerID uuid.UUID) (*model.OfferJoin, error) {
	var join model.OfferJoin
	query := `
		SELECT * FROM offer_joins
		WHERE user_id = $1 AND offer_id = $2 AND status != 'withdrawn'
		ORDER BY joined_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &join, query, userID, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferJoinNotFound
		}
		return nil, err
	}
	return &join, nil
}

func (r *Repository) CreateOfferJoin(ctx context.Context, join *model.OfferJoin) error {
	query := `
		INSERT INTO offer_joins (user_id, offer_id, status, joined_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		join.UserID,
		join.OfferID,
		join.Status,
		join.JoinedAt,
	).Scan(&join.ID)
}

// ApproveOfferJoin starts the accrual clock: approved_at and
// last_profit_at are both set to the approval instant. Conditional on
// the join still being pending; a lost race reports ErrConflict.
func (r *Repository) ApproveOfferJoin(ctx context.Context, id uuid.UUID, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE offer_joins
		SET status = 'approved', approved_at = $2, last_profit_at = $2
		WHERE id = $1 AND status = 'pending'`,
		id, now)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}

// TransitionOfferJoin moves a join to a new raw status, conditional on
// its current status still being one of `from`.
func (r *Repository) TransitionOfferJoin(ctx context.Context, id uuid.UUID, to model.JoinStatus, from ...model.JoinStatus) error {
	query, args, err := sqlx.In(
		"UPDATE offer_joins SET status = ? WHERE id = ? AND status IN (?)",
		to, id, from)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}

// ListAccruableJoins returns approved joins that have not yet passed
// maturity, the sweep candidates.
func (r *Repository) ListAccruableJoins(ctx context.Context, now time.Time) ([]model.OfferJoin, error) {
	var joins []model.OfferJoin
	query := `
		SELECT * FROM offer_joins
		WHERE status = 'approved' AND approved_at > $1
		ORDER BY approved_at`
	err := r.db.SelectContext(ctx, &joins, query, now.Add(-model.OfferMaturity))
	return joins, err
}

// CreditDailyProfit performs one accrual credit as a single logical
// operation: advance last_profit_at, insert the profit record, credit
// the balance and append the ledger entry, all in one transaction. The
// advance is a compare-and-swap against the last_profit_at value the
// caller read; if another caller credited the window first, nothing is
// written and ErrConflict is returned.
func (r *Repository) CreditDailyProfit(ctx context.Context, join *model.OfferJoin, amount, points float64, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE offer_joins
		SET last_profit_at = $3
		WHERE id = $1 AND status = 'approved' AND last_profit_at IS NOT DISTINCT FROM $2`,
		join.ID, join.LastProfitAt, now)
	if err != nil {
		return fmt.Errorf("failed to advance profit window: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_profit_records (offer_join_id, user_id, amount, profit_date)
		VALUES ($1, $2, $3, $4)`,
		join.ID, join.UserID, amount, now)
	if err != nil {
		return fmt.Errorf("failed to create profit record: %w", err)
	}

	refID := join.ID
	desc := "Daily offer profit"
	t := &model.Transaction{
		Type:        model.TransactionTypeDailyProfit,
		ReferenceID: &refID,
		Description: &desc,
	}
	if _, err := r.creditBalanceTx(ctx, tx, join.UserID, model.BalanceTypeMain, amount, t); err != nil {
		return err
	}

	if points > 0 {
		pointsDesc := "Points for daily profit"
		pt := &model.Transaction{
			Type:        model.TransactionTypeProfitPoints,
			ReferenceID: &refID,
			Description: &pointsDesc,
		}
		if _, err := r.creditBalanceTx(ctx, tx, join.UserID, model.BalanceTypeTotalPoints, points, pt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	join.LastProfitAt = &now
	return nil
}

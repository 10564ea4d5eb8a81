package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/acwadtec/cashapp-backend/internal/model"
)

var (
	ErrDuplicateReferralEdge = errors.New("referral edge already exists")
	ErrAlreadyReferred       = errors.New("user already has a referrer")
)

// ApplyReferralCommission records the full signup commission for a new
// user in one transaction: referred_by is set (exactly once), and for
// every level one edge is inserted, the referrer's counter bumped and
// its points credited. Either the whole walk commits or none of it
// does. The unique (referred_id, level) index makes accidental re-runs
// fail with ErrDuplicateReferralEdge before any credit lands.
func (r *Repository) ApplyReferralCommission(ctx context.Context, newUserID int64, code string, edges []model.ReferralEdge) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET referred_by = $2, updated_at = NOW() WHERE id = $1 AND referred_by IS NULL",
		newUserID, code)
	if err != nil {
		return fmt.Errorf("failed to set referrer: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyReferred
	}

	for i := range edges {
		e := &edges[i]

		err = tx.QueryRowContext(ctx, `
			INSERT INTO referral_edges (referrer_id, referred_id, level, points_earned, referral_code)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			e.ReferrerID, e.ReferredID, e.Level, e.PointsEarned, e.ReferralCode,
		).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateReferralEdge
			}
			return fmt.Errorf("failed to create referral edge: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE users SET referral_count = referral_count + 1 WHERE id = $1",
			e.ReferrerID)
		if err != nil {
			return fmt.Errorf("failed to bump referral count: %w", err)
		}

		level := e.Level
		source := e.ReferredID
		refID := e.ID
		desc := fmt.Sprintf("Referral signup commission (level %d)", level)
		t := &model.Transaction{
			Type:          model.TransactionTypeReferralPoints,
			SourceUserID:  &source,
			ReferralLevel: &level,
			ReferenceID:   &refID,
			Description:   &desc,
		}
		if _, err := r.creditBalanceTx(ctx, tx, e.ReferrerID, model.BalanceTypeTotalPoints, e.PointsEarned, t); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// EdgesForReferred returns the stored chain above a user, level order.
func (r *Repository) EdgesForReferred(ctx context.Context, referredID int64) ([]model.ReferralEdge, error) {
	var edges []model.ReferralEdge
	query := "SELECT * FROM referral_edges WHERE referred_id = $1 ORDER BY level"
	err := r.db.SelectContext(ctx, &edges, query, referredID)
	return edges, err
}

func (r *Repository) EdgesForReferrer(ctx context.Context, referrerID int64) ([]model.ReferralEdge, error) {
	var edges []model.ReferralEdge
	query := "SELECT * FROM referral_edges WHERE referrer_id = $1 ORDER BY created_at DESC"
	err := r.db.SelectContext(ctx, &edges, query, referrerID)
	return edges, err
}

func (r *Repository) GetReferralStats(ctx context.Context, referrerID int64) (*model.ReferralStats, error) {
	var stats model.ReferralStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS total_referrals, COALESCE(SUM(points_earned), 0) AS points_earned
		FROM referral_edges
		WHERE referrer_id = $1`,
		referrerID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreditTeamEarnings credits a share of a downstream user's profit to
// a referrer's team-earnings balance. Repeatable by design: one entry
// per profit event, tagged with its chain level.
func (r *Repository) CreditTeamEarnings(ctx context.Context, referrerID int64, amount float64, level int, sourceUserID int64, referenceID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	desc := fmt.Sprintf("Team earnings (level %d)", level)
	t := &model.Transaction{
		Type:          model.TransactionTypeTeamEarnings,
		SourceUserID:  &sourceUserID,
		ReferralLevel: &level,
		ReferenceID:   &referenceID,
		Description:   &desc,
	}
	if _, err := r.creditBalanceTx(ctx, tx, referrerID, model.BalanceTypeTeamEarnings, amount, t); err != nil {
		return err
	}

	return tx.Commit()
}

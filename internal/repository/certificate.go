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

var (
	ErrCertificateNotFound     = errors.New("certificate not found")
	ErrCertificateJoinNotFound = errors.New("certificate join not found")
)

func (r *Repository) GetCertificate(ctx context.Context, id uuid.UUID) (*model.InvestmentCertificate, error) {
	var cert model.InvestmentCertificate
	err := r.db.GetContext(ctx, &cert, "SELECT * FROM certificates WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}
	return &cert, nil
}

func (r *Repository) ListCertificates(ctx context.Context, activeOnly bool) ([]model.InvestmentCertificate, error) {
	var certs []model.InvestmentCertificate
	query := "SELECT * FROM certificates ORDER BY created_at DESC"
	if activeOnly {
		query = "SELECT * FROM certificates WHERE active = TRUE ORDER BY created_at DESC"
	}
	err := r.db.SelectContext(ctx, &certs, query)
	return certs, err
}

func (r *Repository) CreateCertificate(ctx context.Context, cert *model.InvestmentCertificate) error {
	query := `
		INSERT INTO certificates (name, monthly_profit, cost, active, profit_duration_months)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		cert.Name,
		cert.MonthlyProfit,
		cert.Cost,
		cert.Active,
		cert.ProfitDurationMonths,
	).Scan(&cert.ID, &cert.CreatedAt)
}

func (r *Repository) GetCertificateJoin(ctx context.Context, id uuid.UUID) (*model.CertificateJoin, error) {
	var join model.CertificateJoin
	err := r.db.GetContext(ctx, &join, "SELECT * FROM certificate_joins WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCertificateJoinNotFound
		}
		return nil, err
	}
	return &join, nil
}

func (r *Repository) GetUserCertificateJoins(ctx context.Context, userID int64) ([]model.CertificateJoin, error) {
	var joins []model.CertificateJoin
	query := "SELECT * FROM certificate_joins WHERE user_id = $1 ORDER BY joined_at DESC"
	err := r.db.SelectContext(ctx, &joins, query, userID)
	return joins, err
}

// CreateCertificateJoin inserts the pending join and debits the chosen
// funding balance in one transaction. A short balance aborts the whole
// operation: no join row, no debit.
func (r *Repository) CreateCertificateJoin(ctx context.Context, join *model.CertificateJoin) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO certificate_joins (user_id, certificate_id, balance_type, amount, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		join.UserID, join.CertificateID, join.BalanceType, join.Amount, join.Status, join.JoinedAt,
	).Scan(&join.ID)
	if err != nil {
		return fmt.Errorf("failed to create certificate join: %w", err)
	}

	refID := join.ID
	desc := "Certificate investment"
	t := &model.Transaction{
		Type:        model.InvestmentTransactionType(join.BalanceType),
		ReferenceID: &refID,
		Description: &desc,
	}
	if _, err := r.creditBalanceTx(ctx, tx, join.UserID, join.BalanceType, -join.Amount, t); err != nil {
		return err
	}

	return tx.Commit()
}

// ApproveCertificateJoin schedules the first monthly payout.
// Conditional on the join still being pending.
func (r *Repository) ApproveCertificateJoin(ctx context.Context, id uuid.UUID, now, nextProfitDate time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE certificate_joins
		SET status = 'approved', approved_at = $2, next_profit_date = $3
		WHERE id = $1 AND status = 'pending'`,
		id, now, nextProfitDate)
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

func (r *Repository) TransitionCertificateJoin(ctx context.Context, id uuid.UUID, to model.JoinStatus, from ...model.JoinStatus) error {
	query, args, err := sqlx.In(
		"UPDATE certificate_joins SET status = ? WHERE id = ? AND status IN (?)",
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

// ListPayableCertificateJoins returns approved joins whose next payout
// has come due.
func (r *Repository) ListPayableCertificateJoins(ctx context.Context, now time.Time) ([]model.CertificateJoin, error) {
	var joins []model.CertificateJoin
	query := `
		SELECT * FROM certificate_joins
		WHERE status = 'approved' AND next_profit_date <= $1
		ORDER BY next_profit_date`
	err := r.db.SelectContext(ctx, &joins, query, now)
	return joins, err
}

// CreditMonthlyProfit pays one monthly certificate profit. The advance
// of next_profit_date is a compare-and-swap against the value the
// caller read, so a racing payout lands exactly once.
func (r *Repository) CreditMonthlyProfit(ctx context.Context, join *model.CertificateJoin, amount float64, nextProfitDate time.Time) error {
	if join.NextProfitDate == nil {
		return ErrConflict
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE certificate_joins
		SET next_profit_date = $3, profits_paid = profits_paid + 1
		WHERE id = $1 AND status = 'approved' AND next_profit_date = $2`,
		join.ID, *join.NextProfitDate, nextProfitDate)
	if err != nil {
		return fmt.Errorf("failed to advance payout date: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}

	refID := join.ID
	desc := "Monthly certificate profit"
	t := &model.Transaction{
		Type:        model.TransactionTypeMonthlyProfit,
		ReferenceID: &refID,
		Description: &desc,
	}
	if _, err := r.creditBalanceTx(ctx, tx, join.UserID, model.BalanceTypeMain, amount, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	join.NextProfitDate = &nextProfitDate
	join.ProfitsPaid++
	return nil
}

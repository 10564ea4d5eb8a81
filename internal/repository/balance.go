package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acwadtec/cashapp-backend/internal/model"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// balanceColumn maps a balance type onto its users column. The switch
// doubles as a whitelist: only these identifiers ever reach a query.
func balanceColumn(t model.BalanceType) string {
	switch t {
	case model.BalanceTypeBonuses:
		return "bonus_balance"
	case model.BalanceTypeTeamEarnings:
		return "team_earnings"
	case model.BalanceTypeTotalPoints:
		return "total_points"
	}
	return "balance"
}

// creditBalanceTx applies a delta to one of the user's balances and
// appends the matching ledger entry, on the caller's transaction. The
// user row is locked first so concurrent credits serialize. A debit
// that would take the balance below zero fails with
// ErrInsufficientBalance and writes nothing.
func (r *Repository) creditBalanceTx(ctx context.Context, tx *sqlx.Tx, userID int64, balanceType model.BalanceType, amount float64, t *model.Transaction) (float64, error) {
	col := balanceColumn(balanceType)

	var before float64
	err := tx.GetContext(ctx, &before,
		fmt.Sprintf("SELECT %s FROM users WHERE id = $1 FOR UPDATE", col), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to lock balance: %w", err)
	}

	after := before + amount
	if amount < 0 && after < 0 {
		return before, ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE users SET %s = $1, updated_at = NOW() WHERE id = $2", col), after, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	t.UserID = userID
	t.Amount = amount
	t.BalanceBefore = before
	t.BalanceAfter = after
	if t.Status == "" {
		t.Status = model.TransactionStatusCompleted
	}
	if err := insertTransactionTx(ctx, tx, t); err != nil {
		return 0, err
	}

	return after, nil
}

// GetBalances returns the user's current balances without locks.
func (r *Repository) GetBalances(ctx context.Context, userID int64) (*model.User, error) {
	return r.GetUser(ctx, userID)
}

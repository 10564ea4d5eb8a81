package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/acwadtec/cashapp-backend/internal/model"
)

func insertTransactionTx(ctx context.Context, tx *sqlx.Tx, t *model.Transaction) error {
	query := `
		INSERT INTO transactions (
			user_id, type, amount, status, source_user_id, referral_level,
			reference_id, description, balance_before, balance_after
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	return tx.QueryRowContext(ctx, query,
		t.UserID,
		t.Type,
		t.Amount,
		t.Status,
		t.SourceUserID,
		t.ReferralLevel,
		t.ReferenceID,
		t.Description,
		t.BalanceBefore,
		t.BalanceAfter,
	).Scan(&t.ID, &t.CreatedAt)
}

// GetUserTransactions returns ledger history for a user, newest first.
func (r *Repository) GetUserTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}

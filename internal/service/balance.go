package service

import (
	"context"

	"github.com/acwadtec/cashapp-backend/internal/model"
)

type BalanceStore interface {
	GetBalances(ctx context.Context, userID int64) (*model.User, error)
	GetUserTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error)
}

// BalanceService is read-only: every mutation of a balance happens
// inside a store-level transaction owned by the engine performing it.
type BalanceService struct {
	store BalanceStore
}

func NewBalanceService(store BalanceStore) *BalanceService {
	return &BalanceService{store: store}
}

func (s *BalanceService) GetBalances(ctx context.Context, userID int64) (*model.User, error) {
	return s.store.GetBalances(ctx, userID)
}

// GetTransactions returns ledger history, newest first.
func (s *BalanceService) GetTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.store.GetUserTransactions(ctx, userID, limit, offset)
}

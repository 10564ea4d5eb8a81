package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/acwadtec/cashapp-backend/internal/model"
	"github.com/acwadtec/cashapp-backend/internal/repository"
)

var (
	ErrOfferClosed   = errors.New("offer is not accepting joins")
	ErrAlreadyJoined = errors.New("user already has a join for this offer")
	ErrNotPending    = errors.New("join is not pending")
	ErrJoinTerminal  = errors.New("join is already terminal")
)

// OfferStore is the persistence surface the offer subscription ledger
// operates against. *repository.Repository satisfies it.
type OfferStore interface {
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	ListOffers(ctx context.Context, activeOnly bool) ([]model.Offer, error)
	GetOfferJoin(ctx context.Context, id uuid.UUID) (*model.OfferJoin, error)
	GetUserOfferJoins(ctx context.Context, userID int64) ([]model.OfferJoin, error)
	FindCurrentJoin(ctx context.Context, userID int64, offerID uuid.UUID) (*model.OfferJoin, error)
	CreateOfferJoin(ctx context.Context, join *model.OfferJoin) error
	ApproveOfferJoin(ctx context.Context, id uuid.UUID, now time.Time) error
	TransitionOfferJoin(ctx context.Context, id uuid.UUID, to model.JoinStatus, from ...model.JoinStatus) error
}

// OfferService owns the offer join lifecycle:
// join -> approve/reject -> withdrawn, with expiration derived from
// timestamps rather than stored.
type OfferService struct {
	store OfferStore
	now   func() time.Time
}

func NewOfferService(store OfferStore) *OfferService {
	return &OfferService{store: store, now: time.Now}
}

func (s *OfferService) ListOffers(ctx context.Context, activeOnly bool) ([]model.Offer, error) {
	return s.store.ListOffers(ctx, activeOnly)
}

func (s *OfferService) GetJoin(ctx context.Context, id uuid.UUID) (*model.OfferJoin, error) {
	return s.store.GetOfferJoin(ctx, id)
}

func (s *OfferService) UserJoins(ctx context.Context, userID int64) ([]model.OfferJoin, error) {
	return s.store.GetUserOfferJoins(ctx, userID)
}

// Join creates a pending subscription. One non-withdrawn join per
// offer per user.
func (s *OfferService) Join(ctx context.Context, userID int64, offerID uuid.UUID) (*model.OfferJoin, error) {
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !offer.AcceptsJoins(now) {
		return nil, ErrOfferClosed
	}

	_, err = s.store.FindCurrentJoin(ctx, userID, offerID)
	if err == nil {
		return nil, ErrAlreadyJoined
	}
	if !errors.Is(err, repository.ErrOfferJoinNotFound) {
		return nil, err
	}

	join := &model.OfferJoin{
		UserID:   userID,
		OfferID:  offerID,
		Status:   model.JoinStatusPending,
		JoinedAt: now,
	}
	if err := s.store.CreateOfferJoin(ctx, join); err != nil {
		return nil, err
	}
	return join, nil
}

// Approve moves a pending join to approved and starts the accrual
// clock. ApprovedAt is set exactly once and never changes afterwards.
func (s *OfferService) Approve(ctx context.Context, joinID uuid.UUID) (*model.OfferJoin, error) {
	join, err := s.store.GetOfferJoin(ctx, joinID)
	if err != nil {
		return nil, err
	}
	if join.Status != model.JoinStatusPending {
		return nil, ErrNotPending
	}

	now := s.now()
	if err := s.store.ApproveOfferJoin(ctx, join.ID, now); err != nil {
		return nil, err
	}

	join.Status = model.JoinStatusApproved
	join.ApprovedAt = &now
	join.LastProfitAt = &now
	return join, nil
}

// Reject is terminal and only valid from pending.
func (s *OfferService) Reject(ctx context.Context, joinID uuid.UUID) error {
	join, err := s.store.GetOfferJoin(ctx, joinID)
	if err != nil {
		return err
	}
	if join.Status != model.JoinStatusPending {
		return ErrNotPending
	}
	return s.store.TransitionOfferJoin(ctx, join.ID, model.JoinStatusRejected, model.JoinStatusPending)
}

// Withdraw is terminal and valid from any non-terminal state. Accrual
// stops immediately: the credit path requires raw status approved.
func (s *OfferService) Withdraw(ctx context.Context, joinID uuid.UUID) error {
	join, err := s.store.GetOfferJoin(ctx, joinID)
	if err != nil {
		return err
	}
	if join.IsTerminal() {
		return ErrJoinTerminal
	}
	return s.store.TransitionOfferJoin(ctx, join.ID, model.JoinStatusWithdrawn,
		model.JoinStatusPending, model.JoinStatusApproved)
}

// DerivedStatus computes the runtime status of a join at `now`.
func (s *OfferService) DerivedStatus(ctx context.Context, joinID uuid.UUID, now time.Time) (model.DerivedStatus, error) {
	join, err := s.store.GetOfferJoin(ctx, joinID)
	if err != nil {
		return "", err
	}
	offer, err := s.store.GetOffer(ctx, join.OfferID)
	if err != nil {
		return "", err
	}
	return join.DerivedStatus(offer, now), nil
}

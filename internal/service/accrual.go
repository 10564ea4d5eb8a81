package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acwadtec/cashapp-backend/internal/logging"
	"github.com/acwadtec/cashapp-backend/internal/model"
	"github.com/acwadtec/cashapp-backend/internal/repository"
)

// CreditResult tells a caller what happened to an accrual attempt.
type CreditResult string

const (
	// CreditResultCredited: one profit record written, window advanced.
	CreditResultCredited CreditResult = "credited"
	// CreditResultNotDue: the current window has not elapsed yet.
	CreditResultNotDue CreditResult = "not_due"
	// CreditResultStopped: the join is not active (expired, withdrawn,
	// rejected, or its offer switched off); it accrues nothing.
	CreditResultStopped CreditResult = "stopped"
	// CreditResultAlreadyCredited: a concurrent caller credited the
	// window first. Nothing was written; nothing is owed.
	CreditResultAlreadyCredited CreditResult = "already_credited"
)

type AccrualStore interface {
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	GetOfferJoin(ctx context.Context, id uuid.UUID) (*model.OfferJoin, error)
	ListAccruableJoins(ctx context.Context, now time.Time) ([]model.OfferJoin, error)
	CreditDailyProfit(ctx context.Context, join *model.OfferJoin, amount, points float64, now time.Time) error
	TotalProfit(ctx context.Context, joinID uuid.UUID) (float64, error)
	GetGamificationMultipliers(ctx context.Context) (*model.GamificationMultipliers, error)
}

// AccrualService decides when an offer join is due for its next daily
// credit and performs the credit. Safe to invoke redundantly and
// concurrently: the store's compare-and-swap guarantees exactly one
// record per window.
type AccrualService struct {
	store       AccrualStore
	referralSvc *ReferralService
}

func NewAccrualService(store AccrualStore, referralSvc *ReferralService) *AccrualService {
	return &AccrualService{store: store, referralSvc: referralSvc}
}

// CreditDueProfit credits one daily profit if the join's window has
// elapsed. The credit itself is a single logical operation in the
// store; on a lost race the window is treated as already satisfied.
func (s *AccrualService) CreditDueProfit(ctx context.Context, joinID uuid.UUID, now time.Time) (CreditResult, error) {
	join, err := s.store.GetOfferJoin(ctx, joinID)
	if err != nil {
		return "", err
	}
	offer, err := s.store.GetOffer(ctx, join.OfferID)
	if err != nil {
		return "", err
	}

	if join.DerivedStatus(offer, now) != model.DerivedStatusActive {
		return CreditResultStopped, nil
	}

	anchor := join.ProfitAnchor()
	if anchor == nil || now.Sub(*anchor) < model.AccrualWindow {
		return CreditResultNotDue, nil
	}

	multipliers, err := s.store.GetGamificationMultipliers(ctx)
	if err != nil {
		return "", err
	}
	points := offer.DailyProfit * multipliers.ProfitPoints

	if err := s.store.CreditDailyProfit(ctx, join, offer.DailyProfit, points, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return CreditResultAlreadyCredited, nil
		}
		return "", err
	}

	// Ongoing-activity commission for the upstream chain. Distinct from
	// the one-time signup credit and repeatable per profit event. The
	// profit credit above is already committed; a propagation failure
	// is reported, never unwound.
	if s.referralSvc != nil {
		if err := s.referralSvc.CreditTeamEarnings(ctx, join.UserID, offer.DailyProfit, join.ID); err != nil {
			logging.L().Warn("team earnings propagation failed",
				zap.Int64("user_id", join.UserID),
				zap.String("join_id", join.ID.String()),
				zap.Error(err))
		}
	}

	return CreditResultCredited, nil
}

// ProfitCountdown reports how far away the next credit is. Stopped
// means the join no longer accrues regardless of elapsed time.
type ProfitCountdown struct {
	Stopped      bool
	Due          bool
	Remaining    time.Duration
	NextProfitAt *time.Time
}

func (s *AccrualService) TimeToNextProfit(ctx context.Context, joinID uuid.UUID, now time.Time) (*ProfitCountdown, error) {
	join, err := s.store.GetOfferJoin(ctx, joinID)
	if err != nil {
		return nil, err
	}
	offer, err := s.store.GetOffer(ctx, join.OfferID)
	if err != nil {
		return nil, err
	}

	if join.DerivedStatus(offer, now) != model.DerivedStatusActive {
		return &ProfitCountdown{Stopped: true}, nil
	}

	next := join.ProfitAnchor().Add(model.AccrualWindow)
	remaining := next.Sub(now)
	if remaining <= 0 {
		return &ProfitCountdown{Due: true, NextProfitAt: &next}, nil
	}
	return &ProfitCountdown{Remaining: remaining, NextProfitAt: &next}, nil
}

// TotalProfit is the canonical earned-to-date figure for a join: the
// sum of credits that actually happened.
func (s *AccrualService) TotalProfit(ctx context.Context, joinID uuid.UUID) (float64, error) {
	return s.store.TotalProfit(ctx, joinID)
}

// RunSweep credits every approved join whose window has elapsed.
// Driven by the periodic worker and by the external scheduler
// endpoint; redundant invocations are harmless.
func (s *AccrualService) RunSweep(ctx context.Context, now time.Time) (int, error) {
	joins, err := s.store.ListAccruableJoins(ctx, now)
	if err != nil {
		return 0, err
	}

	credited := 0
	for i := range joins {
		result, err := s.CreditDueProfit(ctx, joins[i].ID, now)
		if err != nil {
			logging.L().Error("accrual sweep credit failed",
				zap.String("join_id", joins[i].ID.String()),
				zap.Error(err))
			continue
		}
		if result == CreditResultCredited {
			credited++
		}
	}
	return credited, nil
}

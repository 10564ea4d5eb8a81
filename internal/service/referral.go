package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/acwadtec/cashapp-backend/internal/model"
	"github.com/acwadtec/cashapp-backend/internal/repository"
)

var (
	ErrSelfReferral        = errors.New("cannot use your own referral code")
	ErrReferrerNotFound    = errors.New("referral code does not resolve")
	ErrAlreadyProcessed    = errors.New("referral already processed for this user")
	ErrCyclicReferralChain = errors.New("referral chain contains a cycle")
)

type ReferralStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	ApplyReferralCommission(ctx context.Context, newUserID int64, code string, edges []model.ReferralEdge) error
	EdgesForReferred(ctx context.Context, referredID int64) ([]model.ReferralEdge, error)
	EdgesForReferrer(ctx context.Context, referrerID int64) ([]model.ReferralEdge, error)
	GetReferralStats(ctx context.Context, referrerID int64) (*model.ReferralStats, error)
	CreditTeamEarnings(ctx context.Context, referrerID int64, amount float64, level int, sourceUserID int64, referenceID uuid.UUID) error
	GetReferralSettings(ctx context.Context) (*model.ReferralSettings, error)
	GetGamificationMultipliers(ctx context.Context) (*model.GamificationMultipliers, error)
}

// ReferralService propagates commissions up the referrer chain: a
// one-time signup credit per level when a referred user registers, and
// repeatable team-earnings credits from the referred user's ongoing
// profit.
type ReferralService struct {
	store    ReferralStore
	maxDepth int
}

func NewReferralService(store ReferralStore, maxDepth int) *ReferralService {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &ReferralService{store: store, maxDepth: maxDepth}
}

// ProcessReferral walks the chain above the supplied code, at most
// maxDepth levels, and credits each referrer. The walk plus the
// referred_by assignment commit as one unit in the store, so the event
// either fully lands or is fully retryable. A second invocation for
// the same user returns ErrAlreadyProcessed and writes nothing.
func (s *ReferralService) ProcessReferral(ctx context.Context, newUserID int64, code string) ([]model.ReferralEdge, error) {
	newUser, err := s.store.GetUser(ctx, newUserID)
	if err != nil {
		return nil, err
	}
	if newUser.ReferredBy != nil {
		return nil, ErrAlreadyProcessed
	}
	if newUser.ReferralCode == code {
		return nil, ErrSelfReferral
	}

	referrer, err := s.store.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrReferrerNotFound
		}
		return nil, err
	}
	if referrer.ID == newUserID {
		return nil, ErrSelfReferral
	}

	settings, err := s.store.GetReferralSettings(ctx)
	if err != nil {
		return nil, err
	}
	multipliers, err := s.store.GetGamificationMultipliers(ctx)
	if err != nil {
		return nil, err
	}

	// Bounded walk with a visited set: a corrupted chain that loops
	// back on itself is rejected outright rather than credited.
	visited := map[int64]bool{newUserID: true}
	edges := make([]model.ReferralEdge, 0, s.maxDepth)
	current := referrer
	usedCode := code

	for level := 1; level <= s.maxDepth; level++ {
		if visited[current.ID] {
			return nil, ErrCyclicReferralChain
		}
		visited[current.ID] = true

		edges = append(edges, model.ReferralEdge{
			ReferrerID:   current.ID,
			ReferredID:   newUserID,
			Level:        level,
			PointsEarned: settings.PointsForLevel(level) * multipliers.ReferralPoints,
			ReferralCode: usedCode,
		})

		if current.ReferredBy == nil {
			break
		}
		next, err := s.store.GetUserByReferralCode(ctx, *current.ReferredBy)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				break // upstream link no longer resolves, walk ends here
			}
			return nil, err
		}
		usedCode = *current.ReferredBy
		current = next
	}

	if err := s.store.ApplyReferralCommission(ctx, newUserID, code, edges); err != nil {
		if errors.Is(err, repository.ErrAlreadyReferred) || errors.Is(err, repository.ErrDuplicateReferralEdge) {
			return nil, ErrAlreadyProcessed
		}
		return nil, err
	}
	return edges, nil
}

// CreditTeamEarnings credits each stored referrer above sourceUser a
// share of one profit event. Unlike the signup commission this runs
// once per profit credit, so no uniqueness applies.
func (s *ReferralService) CreditTeamEarnings(ctx context.Context, sourceUserID int64, profitAmount float64, referenceID uuid.UUID) error {
	edges, err := s.store.EdgesForReferred(ctx, sourceUserID)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}

	settings, err := s.store.GetReferralSettings(ctx)
	if err != nil {
		return err
	}

	for _, e := range edges {
		percent := settings.TeamPercentForLevel(e.Level)
		if percent <= 0 {
			continue
		}
		amount := profitAmount * percent / 100
		if err := s.store.CreditTeamEarnings(ctx, e.ReferrerID, amount, e.Level, sourceUserID, referenceID); err != nil {
			return fmt.Errorf("level %d team earnings: %w", e.Level, err)
		}
	}
	return nil
}

func (s *ReferralService) GetStats(ctx context.Context, referrerID int64) (*model.ReferralStats, error) {
	return s.store.GetReferralStats(ctx, referrerID)
}

func (s *ReferralService) GetEdges(ctx context.Context, referrerID int64) ([]model.ReferralEdge, error) {
	return s.store.EdgesForReferrer(ctx, referrerID)
}

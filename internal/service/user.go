package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/acwadtec/cashapp-backend/internal/logging"
	"github.com/acwadtec/cashapp-backend/internal/model"
)

type UserStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

type UserService struct {
	store       UserStore
	referralSvc *ReferralService
}

func NewUserService(store UserStore, referralSvc *ReferralService) *UserService {
	return &UserService{store: store, referralSvc: referralSvc}
}

// Register creates the user with a fresh referral code and, when a
// code was supplied, runs referral commission processing once. The
// returned bool reports whether commission was credited: a code that
// does not resolve never fails registration.
func (s *UserService) Register(ctx context.Context, userID int64, usedCode string) (*model.User, bool, error) {
	referralCode, err := generateReferralCode()
	if err != nil {
		return nil, false, err
	}

	user := &model.User{
		ID:           userID,
		ReferralCode: referralCode,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}

	if usedCode == "" {
		return user, false, nil
	}

	if _, err := s.referralSvc.ProcessReferral(ctx, userID, usedCode); err != nil {
		switch {
		case errors.Is(err, ErrReferrerNotFound), errors.Is(err, ErrSelfReferral), errors.Is(err, ErrCyclicReferralChain):
			logging.L().Warn("referral commission skipped",
				zap.Int64("user_id", userID),
				zap.String("code", usedCode),
				zap.Error(err))
			return user, false, nil
		default:
			// Storage-level failure: the walk rolled back and can be
			// retried via referral processing; surface it.
			return user, false, err
		}
	}

	user.ReferredBy = &usedCode
	return user, true, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.store.GetUser(ctx, id)
}

func generateReferralCode() (string, error) {
	bytes := make([]byte, 5)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	code := base32.StdEncoding.EncodeToString(bytes)
	code = strings.TrimRight(code, "=")
	return strings.ToLower(code[:8]), nil
}

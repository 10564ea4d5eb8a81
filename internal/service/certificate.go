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

var (
	ErrCertificateClosed  = errors.New("certificate is not accepting joins")
	ErrInvalidBalanceType = errors.New("unknown balance type")
	ErrInvalidAmount      = errors.New("investment amount must be positive")
)

type CertificateStore interface {
	GetCertificate(ctx context.Context, id uuid.UUID) (*model.InvestmentCertificate, error)
	ListCertificates(ctx context.Context, activeOnly bool) ([]model.InvestmentCertificate, error)
	GetCertificateJoin(ctx context.Context, id uuid.UUID) (*model.CertificateJoin, error)
	GetUserCertificateJoins(ctx context.Context, userID int64) ([]model.CertificateJoin, error)
	CreateCertificateJoin(ctx context.Context, join *model.CertificateJoin) error
	ApproveCertificateJoin(ctx context.Context, id uuid.UUID, now, nextProfitDate time.Time) error
	TransitionCertificateJoin(ctx context.Context, id uuid.UUID, to model.JoinStatus, from ...model.JoinStatus) error
	ListPayableCertificateJoins(ctx context.Context, now time.Time) ([]model.CertificateJoin, error)
	CreditMonthlyProfit(ctx context.Context, join *model.CertificateJoin, amount float64, nextProfitDate time.Time) error
}

// CertificateService mirrors the offer ledger for fixed-term
// investment certificates: joining debits a nominated balance, payouts
// run monthly against next_profit_date instead of a daily window, and
// there is no 30-day maturity.
type CertificateService struct {
	store       CertificateStore
	referralSvc *ReferralService
	now         func() time.Time
}

func NewCertificateService(store CertificateStore, referralSvc *ReferralService) *CertificateService {
	return &CertificateService{store: store, referralSvc: referralSvc, now: time.Now}
}

func (s *CertificateService) ListCertificates(ctx context.Context, activeOnly bool) ([]model.InvestmentCertificate, error) {
	return s.store.ListCertificates(ctx, activeOnly)
}

func (s *CertificateService) GetJoin(ctx context.Context, id uuid.UUID) (*model.CertificateJoin, error) {
	return s.store.GetCertificateJoin(ctx, id)
}

func (s *CertificateService) UserJoins(ctx context.Context, userID int64) ([]model.CertificateJoin, error) {
	return s.store.GetUserCertificateJoins(ctx, userID)
}

// Join debits the chosen balance and creates the pending join as one
// unit. A short balance aborts both: no debit, no join record.
func (s *CertificateService) Join(ctx context.Context, userID int64, certificateID uuid.UUID, balanceType model.BalanceType, amount float64) (*model.CertificateJoin, error) {
	if !balanceType.Valid() {
		return nil, ErrInvalidBalanceType
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	cert, err := s.store.GetCertificate(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if !cert.Active {
		return nil, ErrCertificateClosed
	}

	join := &model.CertificateJoin{
		UserID:        userID,
		CertificateID: certificateID,
		BalanceType:   balanceType,
		Amount:        amount,
		Status:        model.JoinStatusPending,
		JoinedAt:      s.now(),
	}
	if err := s.store.CreateCertificateJoin(ctx, join); err != nil {
		return nil, err
	}
	return join, nil
}

// Approve schedules the first payout: approved_at plus the
// certificate's profit duration in months.
func (s *CertificateService) Approve(ctx context.Context, joinID uuid.UUID) (*model.CertificateJoin, error) {
	join, err := s.store.GetCertificateJoin(ctx, joinID)
	if err != nil {
		return nil, err
	}
	if join.Status != model.JoinStatusPending {
		return nil, ErrNotPending
	}

	cert, err := s.store.GetCertificate(ctx, join.CertificateID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next := now.AddDate(0, cert.ProfitDurationMonths, 0)
	if err := s.store.ApproveCertificateJoin(ctx, join.ID, now, next); err != nil {
		return nil, err
	}

	join.Status = model.JoinStatusApproved
	join.ApprovedAt = &now
	join.NextProfitDate = &next
	return join, nil
}

func (s *CertificateService) Reject(ctx context.Context, joinID uuid.UUID) error {
	join, err := s.store.GetCertificateJoin(ctx, joinID)
	if err != nil {
		return err
	}
	if join.Status != model.JoinStatusPending {
		return ErrNotPending
	}
	return s.store.TransitionCertificateJoin(ctx, join.ID, model.JoinStatusRejected, model.JoinStatusPending)
}

// Withdraw marks the join withdrawn, terminal. The invested amount is
// not refunded here; refunds are an explicit admin operation upstream.
func (s *CertificateService) Withdraw(ctx context.Context, joinID uuid.UUID) error {
	join, err := s.store.GetCertificateJoin(ctx, joinID)
	if err != nil {
		return err
	}
	if join.IsTerminal() {
		return ErrJoinTerminal
	}
	return s.store.TransitionCertificateJoin(ctx, join.ID, model.JoinStatusWithdrawn,
		model.JoinStatusPending, model.JoinStatusApproved)
}

// CreditDueProfit pays one monthly profit if the join's payout date
// has passed, then advances the date by one month. Same crediting
// discipline as the daily engine: compare-and-swap, exactly one payout
// per due date.
func (s *CertificateService) CreditDueProfit(ctx context.Context, joinID uuid.UUID, now time.Time) (CreditResult, error) {
	join, err := s.store.GetCertificateJoin(ctx, joinID)
	if err != nil {
		return "", err
	}
	cert, err := s.store.GetCertificate(ctx, join.CertificateID)
	if err != nil {
		return "", err
	}

	if join.Status != model.JoinStatusApproved || !cert.Active {
		return CreditResultStopped, nil
	}
	if !join.ProfitDue(now) {
		return CreditResultNotDue, nil
	}

	next := join.NextProfitDate.AddDate(0, 1, 0)
	if err := s.store.CreditMonthlyProfit(ctx, join, cert.MonthlyProfit, next); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return CreditResultAlreadyCredited, nil
		}
		return "", err
	}

	if s.referralSvc != nil {
		if err := s.referralSvc.CreditTeamEarnings(ctx, join.UserID, cert.MonthlyProfit, join.ID); err != nil {
			logging.L().Warn("team earnings propagation failed",
				zap.Int64("user_id", join.UserID),
				zap.String("join_id", join.ID.String()),
				zap.Error(err))
		}
	}

	return CreditResultCredited, nil
}

// RunSweep pays every certificate join whose payout date has passed.
func (s *CertificateService) RunSweep(ctx context.Context, now time.Time) (int, error) {
	joins, err := s.store.ListPayableCertificateJoins(ctx, now)
	if err != nil {
		return 0, err
	}

	credited := 0
	for i := range joins {
		result, err := s.CreditDueProfit(ctx, joins[i].ID, now)
		if err != nil {
			logging.L().Error("certificate sweep credit failed",
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

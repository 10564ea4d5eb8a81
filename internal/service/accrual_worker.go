package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/acwadtec/cashapp-backend/internal/logging"
)

// AccrualWorker owns the accrual clock server-side: no client needs to
// be open for profits to land. Each tick sweeps both ledgers; the
// store-level compare-and-swap makes overlapping sweeps (or an
// external scheduler hitting the cron endpoint at the same time)
// harmless.
type AccrualWorker struct {
	accrualSvc     *AccrualService
	certificateSvc *CertificateService
	interval       time.Duration
}

func NewAccrualWorker(accrualSvc *AccrualService, certificateSvc *CertificateService, interval time.Duration) *AccrualWorker {
	return &AccrualWorker{
		accrualSvc:     accrualSvc,
		certificateSvc: certificateSvc,
		interval:       interval,
	}
}

func (w *AccrualWorker) Start(ctx context.Context) {
	logging.L().Info("accrual worker started", zap.Duration("interval", w.interval))

	// Initial sweep on startup
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.L().Info("accrual worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *AccrualWorker) sweep(ctx context.Context) {
	now := time.Now()

	if credited, err := w.accrualSvc.RunSweep(ctx, now); err != nil {
		logging.L().Error("offer accrual sweep failed", zap.Error(err))
	} else if credited > 0 {
		logging.L().Info("daily profits credited", zap.Int("count", credited))
	}

	if credited, err := w.certificateSvc.RunSweep(ctx, now); err != nil {
		logging.L().Error("certificate payout sweep failed", zap.Error(err))
	} else if credited > 0 {
		logging.L().Info("monthly certificate profits credited", zap.Int("count", credited))
	}
}

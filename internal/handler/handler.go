package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acwadtec/cashapp-backend/internal/config"
	"github.com/acwadtec/cashapp-backend/internal/service"
)

type Handler struct {
	cfg            *config.Config
	userSvc        *service.UserService
	offerSvc       *service.OfferService
	accrualSvc     *service.AccrualService
	referralSvc    *service.ReferralService
	certificateSvc *service.CertificateService
	balanceSvc     *service.BalanceService
}

func New(
	cfg *config.Config,
	userSvc *service.UserService,
	offerSvc *service.OfferService,
	accrualSvc *service.AccrualService,
	referralSvc *service.ReferralService,
	certificateSvc *service.CertificateService,
	balanceSvc *service.BalanceService,
) *Handler {
	return &Handler{
		cfg:            cfg,
		userSvc:        userSvc,
		offerSvc:       offerSvc,
		accrualSvc:     accrualSvc,
		referralSvc:    referralSvc,
		certificateSvc: certificateSvc,
		balanceSvc:     balanceSvc,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/acwadtec/cashapp-backend/internal/middleware"
	"github.com/acwadtec/cashapp-backend/internal/service"
)

type ApplyReferralRequest struct {
	Code string `json:"code"`
}

func (h *Handler) GetReferralStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	stats, err := h.referralSvc.GetStats(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load referral stats",
		})
	}
	return c.JSON(stats)
}

func (h *Handler) GetReferralEdges(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	edges, err := h.referralSvc.GetEdges(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load referrals",
		})
	}
	return c.JSON(fiber.Map{"referrals": edges})
}

// ApplyReferralCode runs commission processing for a user whose
// registration carried no code, or whose registration-time processing
// failed before committing. Safe to retry: a processed user gets 409.
func (h *Handler) ApplyReferralCode(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req ApplyReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}

	edges, err := h.referralSvc.ProcessReferral(c.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReferrerNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "referral code does not resolve",
			})
		case errors.Is(err, service.ErrSelfReferral):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "cannot use your own referral code",
			})
		case errors.Is(err, service.ErrAlreadyProcessed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "referral already processed",
			})
		case errors.Is(err, service.ErrCyclicReferralChain):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "referral chain is corrupted",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"levels":  len(edges),
	})
}

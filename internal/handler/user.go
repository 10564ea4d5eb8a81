package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/acwadtec/cashapp-backend/internal/middleware"
	"github.com/acwadtec/cashapp-backend/internal/repository"
)

type RegisterRequest struct {
	ReferralCode string `json:"referral_code"`
}

// Register creates the ledger-side user record for an identity the
// upstream provider already authenticated. An optional referral code
// triggers commission processing; a code that does not resolve is
// reported but never blocks registration.
func (h *Handler) Register(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	user, credited, err := h.userSvc.Register(c.Context(), userID, req.ReferralCode)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":              user,
		"referral_credited": credited,
	})
}

func (h *Handler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.userSvc.GetUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(user)
}

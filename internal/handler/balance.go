package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/acwadtec/cashapp-backend/internal/middleware"
	"github.com/acwadtec/cashapp-backend/internal/repository"
)

func (h *Handler) GetBalances(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.balanceSvc.GetBalances(c.Context(), userID)
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

	return c.JSON(fiber.Map{
		"balance":       user.Balance,
		"bonus_balance": user.BonusBalance,
		"team_earnings": user.TeamEarnings,
		"total_points":  user.TotalPoints,
	})
}

func (h *Handler) GetTransactions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	transactions, err := h.balanceSvc.GetTransactions(c.Context(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load transactions",
		})
	}
	return c.JSON(fiber.Map{"transactions": transactions})
}

package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acwadtec/cashapp-backend/internal/middleware"
	"github.com/acwadtec/cashapp-backend/internal/repository"
	"github.com/acwadtec/cashapp-backend/internal/service"
)

type JoinOfferRequest struct {
	OfferID string `json:"offer_id"`
}

func (h *Handler) GetOffers(c *fiber.Ctx) error {
	offers, err := h.offerSvc.ListOffers(c.Context(), true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load offers",
		})
	}
	return c.JSON(fiber.Map{"offers": offers})
}

func (h *Handler) JoinOffer(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req JoinOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid offer_id",
		})
	}

	join, err := h.offerSvc.Join(c.Context(), userID, offerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOfferNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "offer not found",
			})
		case errors.Is(err, service.ErrAlreadyJoined):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "you already joined this offer",
			})
		case errors.Is(err, service.ErrOfferClosed):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "offer is not accepting joins",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(join)
}

func (h *Handler) GetOfferJoins(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	joins, err := h.offerSvc.UserJoins(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load joins",
		})
	}
	return c.JSON(fiber.Map{"joins": joins})
}

// GetOfferJoinStatus returns the derived status plus the accrual
// countdown and the earned-to-date total for one join.
func (h *Handler) GetOfferJoinStatus(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	joinID, err := uuid.Parse(c.Params("join_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid join_id",
		})
	}

	join, err := h.offerSvc.GetJoin(c.Context(), joinID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferJoinNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "join not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if join.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "not your join",
		})
	}

	now := time.Now()
	status, err := h.offerSvc.DerivedStatus(c.Context(), joinID, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	countdown, err := h.accrualSvc.TimeToNextProfit(c.Context(), joinID, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	total, err := h.accrualSvc.TotalProfit(c.Context(), joinID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	resp := fiber.Map{
		"join":         join,
		"status":       status,
		"total_profit": total,
	}
	if countdown.Stopped {
		resp["accrual"] = fiber.Map{"stopped": true}
	} else {
		resp["accrual"] = fiber.Map{
			"stopped":           false,
			"due":               countdown.Due,
			"remaining_seconds": int64(countdown.Remaining.Seconds()),
			"next_profit_at":    countdown.NextProfitAt,
		}
	}
	return c.JSON(resp)
}

func (h *Handler) WithdrawOfferJoin(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	joinID, err := uuid.Parse(c.Params("join_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid join_id",
		})
	}

	join, err := h.offerSvc.GetJoin(c.Context(), joinID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferJoinNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "join not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if join.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "not your join",
		})
	}

	if err := h.offerSvc.Withdraw(c.Context(), joinID); err != nil {
		switch {
		case errors.Is(err, service.ErrJoinTerminal):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "join is already terminal",
			})
		case errors.Is(err, repository.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "join changed concurrently, reload and retry",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// Admin transitions

func (h *Handler) ApproveOfferJoin(c *fiber.Ctx) error {
	joinID, err := uuid.Parse(c.Params("join_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid join_id",
		})
	}

	join, err := h.offerSvc.Approve(c.Context(), joinID)
	if err != nil {
		return h.respondTransitionError(c, err)
	}
	return c.JSON(join)
}

func (h *Handler) RejectOfferJoin(c *fiber.Ctx) error {
	joinID, err := uuid.Parse(c.Params("join_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid join_id",
		})
	}

	if err := h.offerSvc.Reject(c.Context(), joinID); err != nil {
		return h.respondTransitionError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *Handler) respondTransitionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrOfferJoinNotFound),
		errors.Is(err, repository.ErrCertificateJoinNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "join not found",
		})
	case errors.Is(err, service.ErrNotPending):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "join is not pending",
		})
	case errors.Is(err, repository.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "join changed concurrently, reload and retry",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

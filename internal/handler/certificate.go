package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acwadtec/cashapp-backend/internal/middleware"
	"github.com/acwadtec/cashapp-backend/internal/model"
	"github.com/acwadtec/cashapp-backend/internal/repository"
	"github.com/acwadtec/cashapp-backend/internal/service"
)

type JoinCertificateRequest struct {
	CertificateID string  `json:"certificate_id"`
	BalanceType   string  `json:"balance_type"`
	Amount        float64 `json:"amount"`
}

func (h *Handler) GetCertificates(c *fiber.Ctx) error {
	certs, err := h.certificateSvc.ListCertificates(c.Context(), true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load certificates",
		})
	}
	return c.JSON(fiber.Map{"certificates": certs})
}

func (h *Handler) JoinCertificate(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req JoinCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	certID, err := uuid.Parse(req.CertificateID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid certificate_id",
		})
	}

	join, err := h.certificateSvc.Join(c.Context(), userID, certID, model.BalanceType(req.BalanceType), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCertificateNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "certificate not found",
			})
		case errors.Is(err, service.ErrInvalidBalanceType):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown balance type",
			})
		case errors.Is(err, service.ErrInvalidAmount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "amount must be positive",
			})
		case errors.Is(err, service.ErrCertificateClosed):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "certificate is not accepting joins",
			})
		case errors.Is(err, repository.ErrInsufficientBalance):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "insufficient balance",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(join)
}

func (h *Handler) GetCertificateJoins(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	joins, err := h.certificateSvc.UserJoins(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load joins",
		})
	}
	return c.JSON(fiber.Map{"joins": joins})
}

func (h *Handler) WithdrawCertificateJoin(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	joinID, err := uuid.Parse(c.Params("join_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid join_id",
		})
	}

	join, err := h.certificateSvc.GetJoin(c.Context(), joinID)
	if err != nil {
		if errors.Is(err, repository.ErrCertificateJoinNotFound) {
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

	if err := h.certificateSvc.Withdraw(c.Context(), joinID); err != nil {
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

func (h *Handler) ApproveCertificateJoin(c *fiber.Ctx) error {
	joinID, err := uuid.Parse(c.Params("join_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid join_id",
		})
	}

	join, err := h.certificateSvc.Approve(c.Context(), joinID)
	if err != nil {
		return h.respondTransitionError(c, err)
	}
	return c.JSON(join)
}

func (h *Handler) RejectCertificateJoin(c *fiber.Ctx) error {
	joinID, err := uuid.Parse(c.Params("join_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid join_id",
		})
	}

	if err := h.certificateSvc.Reject(c.Context(), joinID); err != nil {
		return h.respondTransitionError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/services"
)

type attendanceApplicationService interface {
	CheckIn(ctx context.Context, actorID int64, token string, classSessionID int64) (*models.AttendanceRecord, error)
	ListBySession(ctx context.Context, classSessionID int64) ([]models.AttendanceRecord, error)
}

type AttendanceHandler struct {
	service attendanceApplicationService
}

func NewAttendanceHandler(service *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

type checkInRequest struct {
	Token          string `json:"token"`
	ClassSessionID int64  `json:"class_session_id"`
}

func (h *AttendanceHandler) CheckIn(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req checkInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	record, err := h.service.CheckIn(c.Context(), actorID, req.Token, req.ClassSessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrUnknownCheckInToken):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrNoConfirmedReservation):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to record check-in"})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"attendance": record})
}

func (h *AttendanceHandler) ListBySession(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	records, err := h.service.ListBySession(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to list attendance"})
	}
	return c.JSON(fiber.Map{"attendance": records})
}

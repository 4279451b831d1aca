package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/services"
)

type reservationApplicationService interface {
	Create(ctx context.Context, studentID int64, input services.CreateReservationInput) (*models.SessionReservation, error)
	Confirm(ctx context.Context, adminID int64, reservationID int64, notes *string) (*models.SessionReservation, error)
	Reject(ctx context.Context, adminID int64, reservationID int64, reason *string) (*models.SessionReservation, error)
	ListForStudent(ctx context.Context, studentID int64) ([]models.SessionReservation, error)
	ListPending(ctx context.Context) ([]models.PendingReservationDetail, error)
	ExpirePending(ctx context.Context, ttl time.Duration) (int, error)
}

type ReservationHandler struct {
	service reservationApplicationService
}

func NewReservationHandler(service *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

type createReservationRequest struct {
	ClassSessionID   int64   `json:"class_session_id"`
	SessionPackageID int64   `json:"session_package_id"`
	Notes            *string `json:"notes"`
}

type confirmReservationRequest struct {
	Notes *string `json:"notes"`
}

type rejectReservationRequest struct {
	Reason *string `json:"reason"`
}

func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	studentID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ClassSessionID <= 0 || req.SessionPackageID <= 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "class_session_id and session_package_id are required"})
	}
	if req.Notes != nil && strings.TrimSpace(*req.Notes) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "notes must not be empty"})
	}

	reservation, err := h.service.Create(c.Context(), studentID, services.CreateReservationInput{
		ClassSessionID:   req.ClassSessionID,
		SessionPackageID: req.SessionPackageID,
		Notes:            req.Notes,
	})
	if err != nil {
		return mapReservationError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reservation": reservation})
}

func (h *ReservationHandler) Confirm(c *fiber.Ctx) error {
	adminID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	reservationID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reservation id"})
	}

	var req confirmReservationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	reservation, err := h.service.Confirm(c.Context(), adminID, reservationID, req.Notes)
	if err != nil {
		return mapReservationError(c, err)
	}
	return c.JSON(fiber.Map{"reservation": reservation})
}

func (h *ReservationHandler) Reject(c *fiber.Ctx) error {
	adminID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	reservationID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reservation id"})
	}

	var req rejectReservationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	reservation, err := h.service.Reject(c.Context(), adminID, reservationID, req.Reason)
	if err != nil {
		return mapReservationError(c, err)
	}
	return c.JSON(fiber.Map{"reservation": reservation})
}

func (h *ReservationHandler) ListOwn(c *fiber.Ctx) error {
	studentID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	reservations, err := h.service.ListForStudent(c.Context(), studentID)
	if err != nil {
		return mapReservationError(c, err)
	}
	return c.JSON(fiber.Map{"reservations": reservations})
}

func (h *ReservationHandler) ListPending(c *fiber.Ctx) error {
	reservations, err := h.service.ListPending(c.Context())
	if err != nil {
		return mapReservationError(c, err)
	}
	return c.JSON(fiber.Map{"reservations": reservations})
}

func mapReservationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSessionNotAvailable),
		errors.Is(err, services.ErrSessionFull),
		errors.Is(err, services.ErrPackageNotActive),
		errors.Is(err, services.ErrPackageExpired),
		errors.Is(err, services.ErrPackageExhausted):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyTerminal):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process reservation request"})
	}
}

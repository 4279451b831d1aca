package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/repository"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/services"
)

type catalogApplicationService interface {
	CreateClass(ctx context.Context, input services.CreateClassInput) (*models.Class, error)
	ListClasses(ctx context.Context, activeOnly bool) ([]models.Class, error)
	SetClassActive(ctx context.Context, classID int64, active bool) (*models.Class, error)
	ScheduleSession(ctx context.Context, input services.ScheduleSessionInput) (*models.ClassSession, error)
	ListSessions(ctx context.Context, filter repository.SessionListFilter) ([]models.SessionSummary, error)
	UpdateSessionStatus(ctx context.Context, sessionID int64, requestedStatus string) (*models.ClassSession, error)
	DeleteSession(ctx context.Context, sessionID int64) error
}

type CatalogHandler struct {
	service catalogApplicationService
}

func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

type createClassRequest struct {
	Name            string  `json:"name" validate:"required"`
	Level           string  `json:"level" validate:"required"`
	Description     *string `json:"description"`
	InstructorID    *int64  `json:"instructor_id" validate:"omitempty,gt=0"`
	PricePerSession float64 `json:"price_per_session" validate:"gte=0"`
}

type scheduleSessionRequest struct {
	ClassID         int64  `json:"class_id" validate:"required,gt=0"`
	SessionDate     string `json:"session_date" validate:"required"`
	MaxParticipants int    `json:"max_participants" validate:"required,gte=1"`
}

type updateSessionStatusRequest struct {
	Status string `json:"status"`
}

func (h *CatalogHandler) CreateClass(c *fiber.Ctx) error {
	var req createClassRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	class, err := h.service.CreateClass(c.Context(), services.CreateClassInput{
		Name:            req.Name,
		Level:           req.Level,
		Description:     req.Description,
		InstructorID:    req.InstructorID,
		PricePerSession: req.PricePerSession,
	})
	if err != nil {
		return mapCatalogError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"class": class})
}

func (h *CatalogHandler) ListClasses(c *fiber.Ctx) error {
	activeOnly := strings.TrimSpace(c.Query("active")) == "true"
	classes, err := h.service.ListClasses(c.Context(), activeOnly)
	if err != nil {
		return mapCatalogError(c, err)
	}
	return c.JSON(fiber.Map{"classes": classes})
}

type setClassActiveRequest struct {
	Active *bool `json:"active"`
}

func (h *CatalogHandler) SetClassActive(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class id"})
	}

	var req setClassActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Active == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "active is required"})
	}

	class, err := h.service.SetClassActive(c.Context(), classID, *req.Active)
	if err != nil {
		return mapCatalogError(c, err)
	}
	return c.JSON(fiber.Map{"class": class})
}

func (h *CatalogHandler) ScheduleSession(c *fiber.Ctx) error {
	var req scheduleSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sessionDate, err := time.Parse(time.RFC3339, strings.TrimSpace(req.SessionDate))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "session_date must be a valid RFC3339 timestamp"})
	}

	session, err := h.service.ScheduleSession(c.Context(), services.ScheduleSessionInput{
		ClassID:         req.ClassID,
		SessionDate:     sessionDate,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		return mapCatalogError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *CatalogHandler) ListSessions(c *fiber.Ctx) error {
	filter := repository.SessionListFilter{
		Status: strings.TrimSpace(c.Query("status")),
	}

	if classID := strings.TrimSpace(c.Query("class_id")); classID != "" {
		id, err := parseQueryID(classID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class_id"})
		}
		filter.ClassID = id
	}
	if from := strings.TrimSpace(c.Query("from")); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "from must be a valid RFC3339 timestamp"})
		}
		filter.From = &parsed
	}
	if to := strings.TrimSpace(c.Query("to")); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "to must be a valid RFC3339 timestamp"})
		}
		filter.To = &parsed
	}

	sessions, err := h.service.ListSessions(c.Context(), filter)
	if err != nil {
		return mapCatalogError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// ListClassSessions is the per-class view of the same session listing.
func (h *CatalogHandler) ListClassSessions(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class id"})
	}

	sessions, err := h.service.ListSessions(c.Context(), repository.SessionListFilter{
		ClassID: classID,
		Status:  strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		return mapCatalogError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *CatalogHandler) UpdateSessionStatus(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req updateSessionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.UpdateSessionStatus(c.Context(), sessionID, req.Status)
	if err != nil {
		return mapCatalogError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *CatalogHandler) DeleteSession(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	if err := h.service.DeleteSession(c.Context(), sessionID); err != nil {
		return mapCatalogError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapCatalogError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSessionHasEnrollments):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process catalog request"})
	}
}

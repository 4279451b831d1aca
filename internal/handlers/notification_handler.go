package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/services"
)

type notificationApplicationService interface {
	Feed(ctx context.Context, page, limit int) (*models.NotificationFeed, error)
	MarkRead(ctx context.Context, notificationID int64) (*models.Notification, error)
}

type NotificationHandler struct {
	service notificationApplicationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) Feed(c *fiber.Ctx) error {
	page := parsePositiveQueryInt(c.Query("page"), 1)
	limit := parsePositiveQueryInt(c.Query("limit"), 0)

	feed, err := h.service.Feed(c.Context(), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to load notifications"})
	}
	return c.JSON(feed)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	notificationID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	notification, err := h.service.MarkRead(c.Context(), notificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to update notification"})
	}
	return c.JSON(fiber.Map{"notification": notification})
}

func parsePositiveQueryInt(value string, fallback int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

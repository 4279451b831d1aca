package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/services"
)

type packageApplicationService interface {
	Purchase(ctx context.Context, studentID int64, input services.PurchasePackageInput) (*services.PackagePurchase, error)
	ConfirmPayment(ctx context.Context, adminID int64, packageID int64) (*models.SessionPackage, error)
	ListForStudent(ctx context.Context, studentID int64) ([]models.PackageBalance, error)
}

type PackageHandler struct {
	service packageApplicationService
}

func NewPackageHandler(service *services.PackageService) *PackageHandler {
	return &PackageHandler{service: service}
}

type purchasePackageRequest struct {
	PackageType     string  `json:"package_type" validate:"required,oneof=single monthly unlimited"`
	TotalSessions   int     `json:"total_sessions" validate:"required,gt=0"`
	PricePerSession float64 `json:"price_per_session" validate:"gte=0"`
	PaymentMethod   string  `json:"payment_method" validate:"required,oneof=cash card transfer check"`
}

func (h *PackageHandler) Purchase(c *fiber.Ctx) error {
	studentID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req purchasePackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	purchase, err := h.service.Purchase(c.Context(), studentID, services.PurchasePackageInput{
		PackageType:     req.PackageType,
		TotalSessions:   req.TotalSessions,
		PricePerSession: req.PricePerSession,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		return mapPackageError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(purchase)
}

func (h *PackageHandler) ConfirmPayment(c *fiber.Ctx) error {
	adminID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	packageID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid package id"})
	}

	pkg, err := h.service.ConfirmPayment(c.Context(), adminID, packageID)
	if err != nil {
		return mapPackageError(c, err)
	}
	return c.JSON(fiber.Map{"package": pkg})
}

// List returns the caller's own packages; admins can inspect any student
// with ?student_id=.
func (h *PackageHandler) List(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	studentID := actorID
	role, _ := c.Locals("role").(string)
	if queried := strings.TrimSpace(c.Query("student_id")); queried != "" {
		if role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		studentID, err = parseQueryID(queried)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student_id"})
		}
	}

	packages, err := h.service.ListForStudent(c.Context(), studentID)
	if err != nil {
		return mapPackageError(c, err)
	}
	return c.JSON(fiber.Map{"packages": packages})
}

func mapPackageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process package request"})
	}
}

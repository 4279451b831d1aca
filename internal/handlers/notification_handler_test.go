package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type stubNotificationService struct {
	feedResult *models.NotificationFeed
	feedErr    error
	markResult *models.Notification
	markErr    error

	lastPage  int
	lastLimit int
	lastID    int64
}

func (s *stubNotificationService) Feed(_ context.Context, page, limit int) (*models.NotificationFeed, error) {
	s.lastPage = page
	s.lastLimit = limit
	return s.feedResult, s.feedErr
}

func (s *stubNotificationService) MarkRead(_ context.Context, notificationID int64) (*models.Notification, error) {
	s.lastID = notificationID
	return s.markResult, s.markErr
}

func TestFeedPassesPagingParams(t *testing.T) {
	service := &stubNotificationService{feedResult: &models.NotificationFeed{}}
	handler := &NotificationHandler{service: service}

	app := fiber.New()
	app.Get("/api/v1/notifications", handler.Feed)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?page=3&limit=50", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastPage != 3 || service.lastLimit != 50 {
		t.Fatalf("expected page 3 limit 50, got page %d limit %d", service.lastPage, service.lastLimit)
	}
}

func TestFeedIgnoresGarbagePagingParams(t *testing.T) {
	service := &stubNotificationService{feedResult: &models.NotificationFeed{}}
	handler := &NotificationHandler{service: service}

	app := fiber.New()
	app.Get("/api/v1/notifications", handler.Feed)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?page=zero&limit=-4", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastPage != 1 || service.lastLimit != 0 {
		t.Fatalf("expected fallback page 1 limit 0, got page %d limit %d", service.lastPage, service.lastLimit)
	}
}

func TestMarkReadReturnsNotFoundForUnknownID(t *testing.T) {
	service := &stubNotificationService{markErr: pgx.ErrNoRows}
	handler := &NotificationHandler{service: service}

	app := fiber.New()
	app.Post("/api/v1/notifications/:id/read", handler.MarkRead)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/999/read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMarkReadRejectsBadID(t *testing.T) {
	service := &stubNotificationService{}
	handler := &NotificationHandler{service: service}

	app := fiber.New()
	app.Post("/api/v1/notifications/:id/read", handler.MarkRead)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/abc/read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastID != 0 {
		t.Fatal("service should not have been called")
	}
}

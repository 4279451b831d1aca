package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type stubInstructorReader struct {
	user *models.User
	err  error
}

func (s *stubInstructorReader) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.user, s.err
}

type stubConfirmedCounter struct {
	count int
	err   error
}

func (s *stubConfirmedCounter) CountConfirmedBySession(ctx context.Context, classSessionID int64) (int, error) {
	return s.count, s.err
}

func TestNormalizeSessionStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"completed", models.SessionCompleted},
		{"complete", models.SessionCompleted},
		{"  Completed ", models.SessionCompleted},
		{"cancelled", models.SessionCancelled},
		{"canceled", models.SessionCancelled},
		{"cancel", models.SessionCancelled},
	}
	for _, tc := range cases {
		got, err := normalizeSessionStatus(tc.in)
		if err != nil {
			t.Fatalf("normalizeSessionStatus(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("normalizeSessionStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := normalizeSessionStatus("scheduled"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for %q, got %v", "scheduled", err)
	}
	if _, err := normalizeSessionStatus(""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for empty status, got %v", err)
	}
}

func TestCreateClassRejectsBlankFields(t *testing.T) {
	svc := NewCatalogService(nil, nil, &stubInstructorReader{}, &stubConfirmedCounter{})

	_, err := svc.CreateClass(context.Background(), CreateClassInput{Name: "  ", Level: "beginner"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}

	_, err = svc.CreateClass(context.Background(), CreateClassInput{Name: "Crawl", Level: "beginner", PricePerSession: -1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative price, got %v", err)
	}
}

func TestCreateClassRejectsNonInstructor(t *testing.T) {
	svc := NewCatalogService(nil, nil, &stubInstructorReader{
		user: &models.User{ID: 7, Role: models.RoleStudent},
	}, &stubConfirmedCounter{})

	instructorID := int64(7)
	_, err := svc.CreateClass(context.Background(), CreateClassInput{
		Name:         "Crawl",
		Level:        "beginner",
		InstructorID: &instructorID,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-instructor assignee, got %v", err)
	}
}

func TestScheduleSessionRejectsPastDate(t *testing.T) {
	svc := NewCatalogService(nil, nil, &stubInstructorReader{}, &stubConfirmedCounter{})

	_, err := svc.ScheduleSession(context.Background(), ScheduleSessionInput{
		ClassID:         1,
		SessionDate:     time.Now().UTC().Add(-time.Hour),
		MaxParticipants: 8,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for past session date, got %v", err)
	}

	_, err = svc.ScheduleSession(context.Background(), ScheduleSessionInput{
		ClassID:         1,
		SessionDate:     time.Now().UTC().Add(time.Hour),
		MaxParticipants: 0,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero capacity, got %v", err)
	}
}

func TestDeleteSessionRefusesWithConfirmedEnrollments(t *testing.T) {
	svc := NewCatalogService(nil, nil, &stubInstructorReader{}, &stubConfirmedCounter{count: 3})

	err := svc.DeleteSession(context.Background(), 1)
	if !errors.Is(err, ErrSessionHasEnrollments) {
		t.Fatalf("expected ErrSessionHasEnrollments, got %v", err)
	}
}

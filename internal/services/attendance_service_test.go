package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type stubTokenReader struct {
	user *models.User
	err  error

	lastToken string
}

func (s *stubTokenReader) GetByCheckInToken(ctx context.Context, token string) (*models.User, error) {
	s.lastToken = token
	return s.user, s.err
}

type stubConfirmedReader struct {
	reservation *models.SessionReservation
	err         error
}

func (s *stubConfirmedReader) GetConfirmedByStudentAndSession(ctx context.Context, studentID, classSessionID int64) (*models.SessionReservation, error) {
	return s.reservation, s.err
}

func TestCheckInRejectsBlankToken(t *testing.T) {
	svc := NewAttendanceService(&stubTokenReader{}, &stubConfirmedReader{}, nil)

	if _, err := svc.CheckIn(context.Background(), 1, "   ", 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank token, got %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), 1, "token", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad session id, got %v", err)
	}
}

func TestCheckInMapsUnknownToken(t *testing.T) {
	reader := &stubTokenReader{err: pgx.ErrNoRows}
	svc := NewAttendanceService(reader, &stubConfirmedReader{}, nil)

	_, err := svc.CheckIn(context.Background(), 1, "  scanned-token  ", 5)
	if !errors.Is(err, ErrUnknownCheckInToken) {
		t.Fatalf("expected ErrUnknownCheckInToken, got %v", err)
	}
	if reader.lastToken != "scanned-token" {
		t.Fatalf("expected trimmed token lookup, got %q", reader.lastToken)
	}
}

func TestCheckInRequiresConfirmedReservation(t *testing.T) {
	svc := NewAttendanceService(
		&stubTokenReader{user: &models.User{ID: 42, Role: models.RoleStudent}},
		&stubConfirmedReader{err: pgx.ErrNoRows},
		nil,
	)

	_, err := svc.CheckIn(context.Background(), 1, "scanned-token", 5)
	if !errors.Is(err, ErrNoConfirmedReservation) {
		t.Fatalf("expected ErrNoConfirmedReservation, got %v", err)
	}
}

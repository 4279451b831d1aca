package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/repository"
)

type tokenReader interface {
	GetByCheckInToken(ctx context.Context, token string) (*models.User, error)
}

type confirmedReservationReader interface {
	GetConfirmedByStudentAndSession(ctx context.Context, studentID, classSessionID int64) (*models.SessionReservation, error)
}

// AttendanceService redeems the barcode/QR token printed on a student's
// pass. The scan UI is someone else's problem; this is the redemption step.
type AttendanceService struct {
	userRepo        tokenReader
	reservationRepo confirmedReservationReader
	attendanceRepo  *repository.AttendanceRepository
}

func NewAttendanceService(
	userRepo tokenReader,
	reservationRepo confirmedReservationReader,
	attendanceRepo *repository.AttendanceRepository,
) *AttendanceService {
	return &AttendanceService{
		userRepo:        userRepo,
		reservationRepo: reservationRepo,
		attendanceRepo:  attendanceRepo,
	}
}

// CheckIn is idempotent per reservation: a second scan returns the record
// written by the first.
func (s *AttendanceService) CheckIn(
	ctx context.Context,
	actorID int64,
	token string,
	classSessionID int64,
) (*models.AttendanceRecord, error) {
	token = strings.TrimSpace(token)
	if token == "" || classSessionID <= 0 {
		return nil, ErrInvalidInput
	}

	student, err := s.userRepo.GetByCheckInToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownCheckInToken
		}
		return nil, err
	}

	reservation, err := s.reservationRepo.GetConfirmedByStudentAndSession(ctx, student.ID, classSessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoConfirmedReservation
		}
		return nil, err
	}

	record, err := s.attendanceRepo.Create(ctx, repository.CreateAttendanceInput{
		SessionReservationID: reservation.ID,
		StudentID:            student.ID,
		ClassSessionID:       classSessionID,
		CheckedInBy:          actorID,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return s.attendanceRepo.GetByReservationID(ctx, reservation.ID)
		}
		return nil, err
	}
	return record, nil
}

func (s *AttendanceService) ListBySession(ctx context.Context, classSessionID int64) ([]models.AttendanceRecord, error) {
	return s.attendanceRepo.ListBySession(ctx, classSessionID)
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/repository"
)

type instructorReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type confirmedCounter interface {
	CountConfirmedBySession(ctx context.Context, classSessionID int64) (int, error)
}

// CatalogService owns admin scheduling: classes and their sessions.
// enrolled_students is never written here; only reservation confirmation
// touches it.
type CatalogService struct {
	classRepo       *repository.ClassRepository
	sessionRepo     *repository.ClassSessionRepository
	userRepo        instructorReader
	reservationRepo confirmedCounter
}

func NewCatalogService(
	classRepo *repository.ClassRepository,
	sessionRepo *repository.ClassSessionRepository,
	userRepo instructorReader,
	reservationRepo confirmedCounter,
) *CatalogService {
	return &CatalogService{
		classRepo:       classRepo,
		sessionRepo:     sessionRepo,
		userRepo:        userRepo,
		reservationRepo: reservationRepo,
	}
}

type CreateClassInput struct {
	Name            string
	Level           string
	Description     *string
	InstructorID    *int64
	PricePerSession float64
}

func (s *CatalogService) CreateClass(ctx context.Context, input CreateClassInput) (*models.Class, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Level) == "" {
		return nil, ErrInvalidInput
	}
	if input.PricePerSession < 0 {
		return nil, ErrInvalidInput
	}
	if input.InstructorID != nil {
		instructor, err := s.userRepo.GetByID(ctx, *input.InstructorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidInput
			}
			return nil, err
		}
		if instructor.Role != models.RoleInstructor {
			return nil, ErrInvalidInput
		}
	}

	return s.classRepo.Create(ctx, repository.CreateClassInput{
		Name:            strings.TrimSpace(input.Name),
		Level:           strings.TrimSpace(input.Level),
		Description:     input.Description,
		InstructorID:    input.InstructorID,
		PricePerSession: input.PricePerSession,
	})
}

func (s *CatalogService) ListClasses(ctx context.Context, activeOnly bool) ([]models.Class, error) {
	return s.classRepo.List(ctx, activeOnly)
}

// SetClassActive retires or reinstates a class. Existing sessions are left
// alone; deactivation only blocks scheduling new ones.
func (s *CatalogService) SetClassActive(ctx context.Context, classID int64, active bool) (*models.Class, error) {
	if classID <= 0 {
		return nil, ErrInvalidInput
	}
	return s.classRepo.SetActive(ctx, classID, active)
}

type ScheduleSessionInput struct {
	ClassID         int64
	SessionDate     time.Time
	MaxParticipants int
}

func (s *CatalogService) ScheduleSession(ctx context.Context, input ScheduleSessionInput) (*models.ClassSession, error) {
	if input.ClassID <= 0 || input.MaxParticipants < 1 {
		return nil, ErrInvalidInput
	}
	if input.SessionDate.Before(time.Now().UTC()) {
		return nil, ErrInvalidInput
	}

	class, err := s.classRepo.GetByID(ctx, input.ClassID)
	if err != nil {
		return nil, err
	}
	if !class.Active {
		return nil, ErrInvalidInput
	}

	return s.sessionRepo.Create(ctx, repository.CreateClassSessionInput{
		ClassID:         input.ClassID,
		SessionDate:     input.SessionDate.UTC(),
		MaxParticipants: input.MaxParticipants,
	})
}

func (s *CatalogService) ListSessions(ctx context.Context, filter repository.SessionListFilter) ([]models.SessionSummary, error) {
	return s.sessionRepo.ListSummaries(ctx, filter)
}

func (s *CatalogService) UpdateSessionStatus(
	ctx context.Context,
	sessionID int64,
	requestedStatus string,
) (*models.ClassSession, error) {
	nextStatus, err := normalizeSessionStatus(requestedStatus)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionScheduled {
		return nil, ErrInvalidStateTransition
	}

	updated, err := s.sessionRepo.UpdateStatusIfCurrent(ctx, sessionID, models.SessionScheduled, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return updated, nil
}

// DeleteSession refuses to remove a session that still has confirmed
// enrollments; the admin has to deal with those first.
func (s *CatalogService) DeleteSession(ctx context.Context, sessionID int64) error {
	confirmed, err := s.reservationRepo.CountConfirmedBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if confirmed > 0 {
		return ErrSessionHasEnrollments
	}

	deleted, err := s.sessionRepo.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		return pgx.ErrNoRows
	}
	return nil
}

func normalizeSessionStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "complete", "completed":
		return models.SessionCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.SessionCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

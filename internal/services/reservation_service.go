package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/repository"
)

// ReservationService drives the pending -> confirmed/cancelled state machine.
// Creation only validates; the package debit and the seat increment are
// deferred to Confirm, which runs them in a single transaction so no partial
// state (package debited, seat not taken) is ever observable.
type ReservationService struct {
	db              *pgxpool.Pool
	reservationRepo *repository.ReservationRepository
	sessionRepo     *repository.ClassSessionRepository
	packageRepo     *repository.PackageRepository
	paymentRepo     *repository.PaymentRepository
	publisher       SignalPublisher
}

func NewReservationService(
	db *pgxpool.Pool,
	reservationRepo *repository.ReservationRepository,
	sessionRepo *repository.ClassSessionRepository,
	packageRepo *repository.PackageRepository,
	paymentRepo *repository.PaymentRepository,
	publisher SignalPublisher,
) *ReservationService {
	return &ReservationService{
		db:              db,
		reservationRepo: reservationRepo,
		sessionRepo:     sessionRepo,
		packageRepo:     packageRepo,
		paymentRepo:     paymentRepo,
		publisher:       publisher,
	}
}

type CreateReservationInput struct {
	ClassSessionID   int64
	SessionPackageID int64
	Notes            *string
}

func (s *ReservationService) Create(
	ctx context.Context,
	studentID int64,
	input CreateReservationInput,
) (*models.SessionReservation, error) {
	if input.ClassSessionID <= 0 || input.SessionPackageID <= 0 {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.GetByID(ctx, input.ClassSessionID)
	if err != nil {
		return nil, err
	}
	pkg, err := s.packageRepo.GetByID(ctx, input.SessionPackageID)
	if err != nil {
		return nil, err
	}
	if pkg.StudentID != studentID {
		return nil, ErrForbidden
	}

	// Advisory only: nothing is debited or held here, so the same checks run
	// again inside the Confirm transaction.
	if err := validateReservable(session, pkg, time.Now().UTC()); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	reservation, err := repository.NewReservationRepository(tx).Create(ctx, repository.CreateReservationInput{
		StudentID:        studentID,
		ClassSessionID:   input.ClassSessionID,
		SessionPackageID: input.SessionPackageID,
		Notes:            input.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := emitReservationNotification(
		ctx,
		tx,
		models.NotifyPendingReservation,
		"New reservation pending",
		fmt.Sprintf("Student %d requested a seat in session %d", studentID, session.ID),
		reservation,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publish(newSignal(models.NotifyPendingReservation, reservation.ID))
	return reservation, nil
}

// Confirm finalizes a pending reservation: debit one package session,
// take one seat, flip the reservation, all in one transaction. Confirming an
// already-confirmed reservation is a no-op success so retries after a lost
// response are safe; a cancelled reservation surfaces ErrAlreadyTerminal.
func (s *ReservationService) Confirm(
	ctx context.Context,
	adminID int64,
	reservationID int64,
	notes *string,
) (*models.SessionReservation, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txReservationRepo := repository.NewReservationRepository(tx)
	txSessionRepo := repository.NewClassSessionRepository(tx)
	txPackageRepo := repository.NewPackageRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	reservation, err := txReservationRepo.GetByIDForUpdate(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	switch reservation.Status {
	case models.ReservationConfirmed:
		return reservation, nil
	case models.ReservationCancelled:
		return nil, ErrAlreadyTerminal
	}

	// Lock order is fixed: reservation, then session, then package. Every
	// writer of these counters goes through this path.
	session, err := txSessionRepo.GetByIDForUpdate(ctx, reservation.ClassSessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionScheduled {
		return nil, ErrSessionNotAvailable
	}
	if session.EnrolledStudents >= session.MaxParticipants {
		return nil, ErrSessionFull
	}

	pkg, err := txPackageRepo.GetByIDForUpdate(ctx, reservation.SessionPackageID)
	if err != nil {
		return nil, err
	}
	if err := validatePackageUsable(pkg, time.Now().UTC()); err != nil {
		return nil, err
	}

	if _, err := txPackageRepo.Consume(ctx, pkg.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageExhausted
		}
		return nil, err
	}
	if _, err := txSessionRepo.IncrementEnrolled(ctx, session.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionFull
		}
		return nil, err
	}

	confirmed, err := txReservationRepo.ConfirmPending(ctx, reservation.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyTerminal
		}
		return nil, err
	}

	// Confirmation notes double as the payment linkage: when supplied, a
	// still-pending payment on the backing package is settled here too.
	if notes != nil {
		if err := s.settlePackagePayment(ctx, txPaymentRepo, pkg.ID); err != nil {
			return nil, err
		}
	}

	if err := emitReservationNotification(
		ctx,
		tx,
		models.NotifyReservationConfirmed,
		"Reservation confirmed",
		fmt.Sprintf("Reservation %d confirmed by admin %d", confirmed.ID, adminID),
		confirmed,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publish(newSignal(models.NotifyReservationConfirmed, confirmed.ID))
	return confirmed, nil
}

// Reject cancels a pending reservation. Nothing was debited at creation, so
// there is nothing to roll back beyond the status flip.
func (s *ReservationService) Reject(
	ctx context.Context,
	adminID int64,
	reservationID int64,
	reason *string,
) (*models.SessionReservation, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txReservationRepo := repository.NewReservationRepository(tx)

	reservation, err := txReservationRepo.GetByIDForUpdate(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status != models.ReservationPending {
		return nil, ErrAlreadyTerminal
	}

	cancelled, err := txReservationRepo.CancelPending(ctx, reservation.ID, &adminID, reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyTerminal
		}
		return nil, err
	}

	if err := emitReservationNotification(
		ctx,
		tx,
		models.NotifyReservationRejected,
		"Reservation rejected",
		fmt.Sprintf("Reservation %d rejected by admin %d", cancelled.ID, adminID),
		cancelled,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publish(newSignal(models.NotifyReservationRejected, cancelled.ID))
	return cancelled, nil
}

func (s *ReservationService) ListForStudent(ctx context.Context, studentID int64) ([]models.SessionReservation, error) {
	return s.reservationRepo.ListByStudent(ctx, studentID)
}

func (s *ReservationService) ListPending(ctx context.Context) ([]models.PendingReservationDetail, error) {
	return s.reservationRepo.ListPendingDetails(ctx)
}

// ExpirePending auto-cancels reservations stuck in pending longer than ttl.
// A zero or negative ttl disables the sweep.
func (s *ReservationService) ExpirePending(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txReservationRepo := repository.NewReservationRepository(tx)

	cutoff := time.Now().UTC().Add(-ttl)
	stale, err := txReservationRepo.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reason := fmt.Sprintf("auto-cancelled after pending for more than %s", ttl)
	expired := make([]*models.SessionReservation, 0, len(stale))
	for _, reservation := range stale {
		cancelled, err := txReservationRepo.CancelPending(ctx, reservation.ID, nil, &reason)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return 0, err
		}
		if err := emitReservationNotification(
			ctx,
			tx,
			models.NotifyReservationExpired,
			"Reservation expired",
			fmt.Sprintf("Reservation %d auto-cancelled after the pending TTL", cancelled.ID),
			cancelled,
		); err != nil {
			return 0, err
		}
		expired = append(expired, cancelled)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	for _, reservation := range expired {
		s.publish(newSignal(models.NotifyReservationExpired, reservation.ID))
	}
	return len(expired), nil
}

func (s *ReservationService) settlePackagePayment(
	ctx context.Context,
	txPaymentRepo *repository.PaymentRepository,
	packageID int64,
) error {
	payment, err := txPaymentRepo.GetByPackageIDForUpdate(ctx, packageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if payment.Status != models.PaymentPending {
		return nil
	}
	if _, err := txPaymentRepo.UpdateStatusIfCurrent(ctx, payment.ID, models.PaymentPending, models.PaymentPaid); err != nil &&
		!errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return nil
}

func (s *ReservationService) publish(signal Signal) {
	if s.publisher != nil {
		s.publisher.Publish(signal)
	}
}

// validateReservable runs the creation-time precondition chain; the first
// failing check wins, so callers see session problems before package problems.
func validateReservable(session *models.ClassSession, pkg *models.SessionPackage, now time.Time) error {
	if session.Status != models.SessionScheduled {
		return ErrSessionNotAvailable
	}
	if session.EnrolledStudents >= session.MaxParticipants {
		return ErrSessionFull
	}
	return validatePackageUsable(pkg, now)
}

func validatePackageUsable(pkg *models.SessionPackage, now time.Time) error {
	if pkg.Status != models.PackageActive {
		switch pkg.Status {
		case models.PackageExpired:
			return ErrPackageExpired
		case models.PackageExhausted:
			return ErrPackageExhausted
		default:
			return ErrPackageNotActive
		}
	}
	if pkg.Remaining() <= 0 {
		return ErrPackageExhausted
	}
	if pkg.ExpiresAt != nil && !pkg.ExpiresAt.After(now) {
		return ErrPackageExpired
	}
	return nil
}

func emitReservationNotification(
	ctx context.Context,
	tx pgx.Tx,
	notificationType string,
	title string,
	message string,
	reservation *models.SessionReservation,
) error {
	data, err := json.Marshal(map[string]int64{
		"reservation_id":     reservation.ID,
		"student_id":         reservation.StudentID,
		"class_session_id":   reservation.ClassSessionID,
		"session_package_id": reservation.SessionPackageID,
	})
	if err != nil {
		return err
	}
	_, err = repository.NewNotificationRepository(tx).Create(ctx, repository.CreateNotificationInput{
		Title:   title,
		Message: message,
		Type:    notificationType,
		Data:    data,
	})
	return err
}

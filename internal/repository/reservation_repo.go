package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type CreateReservationInput struct {
	StudentID        int64
	ClassSessionID   int64
	SessionPackageID int64
	Notes            *string
}

type ReservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = "id, student_id, class_session_id, session_package_id, status, reservation_notes, admin_cancelled_at, admin_cancelled_by, created_at, updated_at"

func (r *ReservationRepository) Create(
	ctx context.Context,
	input CreateReservationInput,
) (*models.SessionReservation, error) {
	query := fmt.Sprintf(`
		INSERT INTO session_reservations (student_id, class_session_id, session_package_id, status, reservation_notes)
		VALUES ($1, $2, $3, 'pending', $4)
		RETURNING %s
	`, reservationColumns)
	return r.scanOne(ctx, query,
		input.StudentID,
		input.ClassSessionID,
		input.SessionPackageID,
		input.Notes,
	)
}

func (r *ReservationRepository) GetByID(ctx context.Context, reservationID int64) (*models.SessionReservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_reservations WHERE id = $1`, reservationColumns)
	return r.scanOne(ctx, query, reservationID)
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, reservationID int64) (*models.SessionReservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_reservations WHERE id = $1 FOR UPDATE`, reservationColumns)
	return r.scanOne(ctx, query, reservationID)
}

func (r *ReservationRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.SessionReservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM session_reservations
		WHERE student_id = $1
		ORDER BY created_at DESC, id DESC
	`, reservationColumns)

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]models.SessionReservation, 0)
	for rows.Next() {
		var reservation models.SessionReservation
		if err := rows.Scan(
			&reservation.ID,
			&reservation.StudentID,
			&reservation.ClassSessionID,
			&reservation.SessionPackageID,
			&reservation.Status,
			&reservation.ReservationNotes,
			&reservation.AdminCancelledAt,
			&reservation.AdminCancelledBy,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListPendingDetails joins the approval queue with the fields the admin
// dashboard shows: student name, session date/class, package price.
func (r *ReservationRepository) ListPendingDetails(ctx context.Context) ([]models.PendingReservationDetail, error) {
	query := `
		SELECT r.id, r.student_id, r.class_session_id, r.session_package_id, r.status,
		       r.reservation_notes, r.admin_cancelled_at, r.admin_cancelled_by, r.created_at, r.updated_at,
		       u.full_name, s.session_date, c.name, p.price_per_session
		FROM session_reservations r
		JOIN users u ON u.id = r.student_id
		JOIN class_sessions s ON s.id = r.class_session_id
		JOIN classes c ON c.id = s.class_id
		JOIN session_packages p ON p.id = r.session_package_id
		WHERE r.status = 'pending'
		ORDER BY r.created_at ASC, r.id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]models.PendingReservationDetail, 0)
	for rows.Next() {
		var detail models.PendingReservationDetail
		if err := rows.Scan(
			&detail.ID,
			&detail.StudentID,
			&detail.ClassSessionID,
			&detail.SessionPackageID,
			&detail.Status,
			&detail.ReservationNotes,
			&detail.AdminCancelledAt,
			&detail.AdminCancelledBy,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&detail.StudentName,
			&detail.SessionDate,
			&detail.ClassName,
			&detail.PricePerSession,
		); err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// ConfirmPending is the compare-and-swap pending -> confirmed step. No rows
// means the reservation already left the pending state.
func (r *ReservationRepository) ConfirmPending(ctx context.Context, reservationID int64) (*models.SessionReservation, error) {
	query := fmt.Sprintf(`
		UPDATE session_reservations
		SET status = 'confirmed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s
	`, reservationColumns)
	return r.scanOne(ctx, query, reservationID)
}

func (r *ReservationRepository) CancelPending(
	ctx context.Context,
	reservationID int64,
	cancelledBy *int64,
	reason *string,
) (*models.SessionReservation, error) {
	query := fmt.Sprintf(`
		UPDATE session_reservations
		SET status = 'cancelled',
		    admin_cancelled_at = NOW(),
		    admin_cancelled_by = $2,
		    reservation_notes = COALESCE($3, reservation_notes),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s
	`, reservationColumns)
	return r.scanOne(ctx, query, reservationID, cancelledBy, reason)
}

func (r *ReservationRepository) GetConfirmedByStudentAndSession(
	ctx context.Context,
	studentID int64,
	classSessionID int64,
) (*models.SessionReservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM session_reservations
		WHERE student_id = $1 AND class_session_id = $2 AND status = 'confirmed'
		ORDER BY id DESC
		LIMIT 1
	`, reservationColumns)
	return r.scanOne(ctx, query, studentID, classSessionID)
}

func (r *ReservationRepository) CountConfirmedBySession(ctx context.Context, classSessionID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM session_reservations
		WHERE class_session_id = $1 AND status = 'confirmed'
	`, classSessionID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListPendingOlderThan feeds the TTL sweep. Rows are locked with SKIP LOCKED
// so a sweep never queues behind an in-flight admin confirm.
func (r *ReservationRepository) ListPendingOlderThan(
	ctx context.Context,
	cutoff time.Time,
) ([]models.SessionReservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM session_reservations
		WHERE status = 'pending' AND created_at < $1
		ORDER BY id ASC
		FOR UPDATE SKIP LOCKED
	`, reservationColumns)

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]models.SessionReservation, 0)
	for rows.Next() {
		var reservation models.SessionReservation
		if err := rows.Scan(
			&reservation.ID,
			&reservation.StudentID,
			&reservation.ClassSessionID,
			&reservation.SessionPackageID,
			&reservation.Status,
			&reservation.ReservationNotes,
			&reservation.AdminCancelledAt,
			&reservation.AdminCancelledBy,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *ReservationRepository) scanOne(ctx context.Context, query string, args ...any) (*models.SessionReservation, error) {
	var reservation models.SessionReservation
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&reservation.ID,
		&reservation.StudentID,
		&reservation.ClassSessionID,
		&reservation.SessionPackageID,
		&reservation.Status,
		&reservation.ReservationNotes,
		&reservation.AdminCancelledAt,
		&reservation.AdminCancelledBy,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

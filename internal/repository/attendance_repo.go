package repository

import (
	"context"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type CreateAttendanceInput struct {
	SessionReservationID int64
	StudentID            int64
	ClassSessionID       int64
	CheckedInBy          int64
}

type AttendanceRepository struct {
	db DBTX
}

func NewAttendanceRepository(db DBTX) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = "id, session_reservation_id, student_id, class_session_id, checked_in_by, checked_in_at"

func (r *AttendanceRepository) Create(ctx context.Context, input CreateAttendanceInput) (*models.AttendanceRecord, error) {
	query := `
		INSERT INTO attendance_records (session_reservation_id, student_id, class_session_id, checked_in_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + attendanceColumns
	return r.scanOne(ctx, query,
		input.SessionReservationID,
		input.StudentID,
		input.ClassSessionID,
		input.CheckedInBy,
	)
}

func (r *AttendanceRepository) GetByReservationID(ctx context.Context, reservationID int64) (*models.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE session_reservation_id = $1
	`
	return r.scanOne(ctx, query, reservationID)
}

func (r *AttendanceRepository) ListBySession(ctx context.Context, classSessionID int64) ([]models.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE class_session_id = $1
		ORDER BY checked_in_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, classSessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.AttendanceRecord, 0)
	for rows.Next() {
		var record models.AttendanceRecord
		if err := rows.Scan(
			&record.ID,
			&record.SessionReservationID,
			&record.StudentID,
			&record.ClassSessionID,
			&record.CheckedInBy,
			&record.CheckedInAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AttendanceRepository) scanOne(ctx context.Context, query string, args ...any) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&record.ID,
		&record.SessionReservationID,
		&record.StudentID,
		&record.ClassSessionID,
		&record.CheckedInBy,
		&record.CheckedInAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

package models

import "time"

const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

type SessionReservation struct {
	ID               int64      `json:"id"`
	StudentID        int64      `json:"student_id"`
	ClassSessionID   int64      `json:"class_session_id"`
	SessionPackageID int64      `json:"session_package_id"`
	Status           string     `json:"status"`
	ReservationNotes *string    `json:"reservation_notes"`
	AdminCancelledAt *time.Time `json:"admin_cancelled_at"`
	AdminCancelledBy *int64     `json:"admin_cancelled_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PendingReservationDetail backs the admin approval queue.
type PendingReservationDetail struct {
	SessionReservation
	StudentName     string    `json:"student_name"`
	SessionDate     time.Time `json:"session_date"`
	ClassName       string    `json:"class_name"`
	PricePerSession float64   `json:"price_per_session"`
}

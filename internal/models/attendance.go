package models

import "time"

type AttendanceRecord struct {
	ID                   int64     `json:"id"`
	SessionReservationID int64     `json:"session_reservation_id"`
	StudentID            int64     `json:"student_id"`
	ClassSessionID       int64     `json:"class_session_id"`
	CheckedInBy          int64     `json:"checked_in_by"`
	CheckedInAt          time.Time `json:"checked_in_at"`
}

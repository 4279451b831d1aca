package models

import "time"

const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

type Class struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Level           string    `json:"level"`
	Description     *string   `json:"description"`
	InstructorID    *int64    `json:"instructor_id"`
	PricePerSession float64   `json:"price_per_session"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ClassSession struct {
	ID               int64     `json:"id"`
	ClassID          int64     `json:"class_id"`
	SessionDate      time.Time `json:"session_date"`
	MaxParticipants  int       `json:"max_participants"`
	EnrolledStudents int       `json:"enrolled_students"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SessionSummary is the read projection shown to browsing students:
// the seat count is advisory and may be stale by submission time.
type SessionSummary struct {
	ClassSession
	ClassName string `json:"class_name"`
	SeatsLeft int    `json:"seats_left"`
}

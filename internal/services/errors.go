package services

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// Reservation state machine failures. Reported to the caller as tagged
	// failures; none of them are retried here.
	ErrSessionNotAvailable = errors.New("session not available")
	ErrSessionFull         = errors.New("session full")
	ErrPackageNotActive    = errors.New("package not active")
	ErrPackageExpired      = errors.New("package expired")
	ErrPackageExhausted    = errors.New("package exhausted")
	ErrAlreadyTerminal     = errors.New("reservation already in a terminal state")

	ErrSessionHasEnrollments  = errors.New("session has confirmed enrollments")
	ErrUnknownCheckInToken    = errors.New("unknown check-in token")
	ErrNoConfirmedReservation = errors.New("no confirmed reservation for this session")
)

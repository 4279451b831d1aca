package models

import (
	"encoding/json"
	"time"
)

const (
	NotifyPendingReservation   = "pending_reservation"
	NotifyReservationConfirmed = "reservation_confirmed"
	NotifyReservationRejected  = "reservation_rejected"
	NotifyReservationExpired   = "reservation_expired"
	NotifyPaymentConfirmed     = "payment_confirmed"
)

// Notification rows are append-only; only read_at is ever updated.
type Notification struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ReadAt    *time.Time      `json:"read_at"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
	Meta          PaginationMeta `json:"meta"`
}

package models

import "time"

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentOverdue = "overdue"
)

type Payment struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	SessionPackageID *int64    `json:"session_package_id"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
	Method           string    `json:"method"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

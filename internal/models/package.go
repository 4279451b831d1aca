package models

import "time"

const (
	PackageSingle    = "single"
	PackageMonthly   = "monthly"
	PackageUnlimited = "unlimited"
)

const (
	PackagePendingPayment = "pending_payment"
	PackageActive         = "active"
	PackageExpired        = "expired"
	PackageExhausted      = "exhausted"
)

type SessionPackage struct {
	ID              int64      `json:"id"`
	StudentID       int64      `json:"student_id"`
	PackageType     string     `json:"package_type"`
	TotalSessions   int        `json:"total_sessions"`
	UsedSessions    int        `json:"used_sessions"`
	PricePerSession float64    `json:"price_per_session"`
	Status          string     `json:"status"`
	ExpiresAt       *time.Time `json:"expires_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Remaining floors at zero; used_sessions never exceeds total_sessions in
// the store but callers should not rely on that for arithmetic.
func (p *SessionPackage) Remaining() int {
	remaining := p.TotalSessions - p.UsedSessions
	if remaining < 0 {
		return 0
	}
	return remaining
}

type PackageBalance struct {
	SessionPackage
	RemainingSessions int `json:"remaining_sessions"`
}

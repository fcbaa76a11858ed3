package model

import "time"

// AdminAccount is a flat administrator credential record with a soft
// lockout counter. This is not a hardened security boundary.
type AdminAccount struct {
	ID             int64  `gorm:"primaryKey"`
	Username       string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash   string `gorm:"size:128;not null"`
	FailedAttempts int    `gorm:"not null;default:0"`
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

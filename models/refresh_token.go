package models

import "time"

// RefreshToken stores the SHA-256 of a refresh token. Tokens are single use:
// a refresh revokes the presented token and issues a new one.
type RefreshToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint      `gorm:"index;not null"`
	TokenHash string    `gorm:"size:128;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Revoked   bool      `gorm:"default:false"`
}

// Usable reports whether the token can still be exchanged at now.
func (rt RefreshToken) Usable(now time.Time) bool {
	return !rt.Revoked && now.Before(rt.ExpiresAt)
}

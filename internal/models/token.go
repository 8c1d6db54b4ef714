package models

import "time"

// Token lifetimes. Activation links come from signup emails, reset links
// from forgot-password emails.
const (
	ActivationTokenTTL    = 24 * time.Hour
	PasswordResetTokenTTL = 1 * time.Hour
)

// ActivationToken is a one-time code proving email ownership. It is deleted
// on consumption; an expired token is ignored and the lookup fails.
type ActivationToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null;size:255"`
	UserID    string    `json:"user_id" gorm:"not null;index;size:255"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (ActivationToken) TableName() string {
	return "activation_tokens"
}

// Expired reports whether the token can no longer be consumed. A token whose
// expiry equals now is already expired.
func (t ActivationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// PasswordResetToken is the single-use credential for the reset flow.
type PasswordResetToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null;size:255"`
	UserID    string    `json:"user_id" gorm:"not null;index;size:255"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

func (t PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

package models

import "time"

// User represents an authenticated identity. Transactions are scoped to it.
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	FullName            string     `gorm:"not null" json:"full_name"`
	BirthDate           *Date      `gorm:"type:date" json:"birth_date,omitempty"`
	Gender              string     `json:"gender,omitempty"`
	EmailConfirmedAt    *time.Time `json:"email_confirmed_at,omitempty"`
	ConfirmationHash    string     `gorm:"size:64;index" json:"-"`
	RecoveryHash        string     `gorm:"size:64;index" json:"-"`
	RecoverySentAt      *time.Time `json:"-"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastSignInAt        *time.Time `json:"last_sign_in_at,omitempty"`
}

// Confirmed reports whether the user verified their email address.
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}

package models

import (
	"regexp"
	"time"
)

// ReservedUsername cannot be registered because it collides with the /users/me route.
const ReservedUsername = "me"

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// User represents an account that authors recipes and keeps favorites, a cart and subscriptions.
type User struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Email        string `gorm:"type:varchar(254);uniqueIndex;not null"`
	Username     string `gorm:"type:varchar(150);uniqueIndex;not null"`
	FirstName    string `gorm:"type:varchar(150);not null"`
	LastName     string `gorm:"type:varchar(150);not null"`
	PasswordHash string `gorm:"not null"`
	// Avatar is the media storage key, empty when no avatar is set.
	Avatar       string `gorm:"type:varchar(255)"`
}

// ValidUsername reports whether the value matches the allowed username alphabet and is not reserved.
func ValidUsername(value string) bool {
	if value == ReservedUsername {
		return false
	}
	return usernamePattern.MatchString(value)
}

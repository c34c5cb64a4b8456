package models

import (
	"mentorship/backend/pkg/mentorship"

	"gorm.io/gorm"
)

// User represents an account in the directory.
type User struct {
	gorm.Model
	Username     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
}

// ToDomain returns the public directory record for u.
func (u User) ToDomain() mentorship.User {
	return mentorship.User{ID: u.ID, Username: u.Username}
}

package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Roles are flat: admin does not imply editor.
const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// User is an account able to author articles and claim reviews.
type User struct {
	gorm.Model
	Name               string `gorm:"not null"`
	Email              string `gorm:"unique;not null"`
	Password           string `gorm:"not null" json:"-"`
	Role               string `gorm:"size:20;default:'user';not null"`
	ReviewerReputation int    `gorm:"default:0;not null"`
}

// ValidRole reports whether role is one of the known role names.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// EnsureAdmin creates a bcrypt-hashed admin account when email and password
// are both non-empty and no account with that email exists yet.
func EnsureAdmin(name, email, password string) error {
	trimmedEmail := strings.TrimSpace(email)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		displayName := strings.TrimSpace(name)
		if displayName == "" {
			displayName = "Administrator"
		}

		return DB.Create(&User{
			Name:     displayName,
			Email:    trimmedEmail,
			Password: string(hashed),
			Role:     RoleAdmin,
		}).Error
	}

	return nil
}

// Package store provides the GORM-backed identity lookup used by the
// login flow.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"linkauth/internal/models"
)

// UnknownEmailError reports an email with no matching account. Its
// message is shown to the requester on the login page.
type UnknownEmailError struct {
	Email string
}

func (e *UnknownEmailError) Error() string {
	return fmt.Sprintf("Unknown e-mail %s!", e.Email)
}

// Users resolves email addresses against the user table.
type Users struct {
	db *gorm.DB
}

// NewUsers creates a Users store around the database handle.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// VerifyEmail returns the account owning email, or *UnknownEmailError
// when none exists. It satisfies magiclink.Verifier.
func (u *Users) VerifyEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &UnknownEmailError{Email: email}
	}
	if err != nil {
		return nil, fmt.Errorf("look up user by email: %w", err)
	}
	return &user, nil
}

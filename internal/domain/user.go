// Package domain contains entities without behaviour, just meta-data
// and the small constructors that keep adapters free of raw literals.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MaxUsernameLen = 36

	DefaultProfileColor = "#CC2244"
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
)

type UserID string

type User struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ProfileColor string    `json:"profile_color"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser validates the username and fills in generated fields.
// The password hash is set by the caller, identity code never hashes.
func NewUser(username, email string) (*User, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &User{
		ID:           UserID(uuid.NewString()),
		Username:     username,
		Email:        email,
		ProfileColor: DefaultProfileColor,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/domain"
)

func (d *DB) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, profile_color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.ProfileColor, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("Username or email already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (d *DB) UserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return d.scanUser(d.sql.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, profile_color, created_at
		 FROM users WHERE id = ?`, id))
}

// UserByLogin resolves a username or an email, the way the login form
// accepts either.
func (d *DB) UserByLogin(ctx context.Context, usernameOrEmail string) (*domain.User, error) {
	return d.scanUser(d.sql.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, profile_color, created_at
		 FROM users WHERE username = ? OR email = ?`,
		usernameOrEmail, usernameOrEmail))
}

func (d *DB) UpdateProfileColor(ctx context.Context, id domain.UserID, color string) error {
	res, err := d.sql.ExecContext(ctx,
		`UPDATE users SET profile_color = ? WHERE id = ?`, color, id)
	if err != nil {
		return fmt.Errorf("update profile color: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

func (d *DB) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ProfileColor, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

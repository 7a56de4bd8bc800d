package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/domain"
)

// CreateServer inserts the server together with the owner membership.
// The owner role is assigned here, exactly once; no other code path may
// set it.
func (d *DB) CreateServer(ctx context.Context, s *domain.Server) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO servers (id, name, invite_code, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.InviteCode, s.OwnerID, s.CreatedAt); err != nil {
		return fmt.Errorf("insert server: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO server_members (user_id, server_id, role, joined_at)
		 VALUES (?, ?, ?, ?)`,
		s.OwnerID, s.ID, domain.RoleOwner, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}
	return tx.Commit()
}

func (d *DB) ServerByID(ctx context.Context, id domain.ServerID) (*domain.Server, error) {
	return d.scanServer(d.sql.QueryRowContext(ctx,
		`SELECT id, name, invite_code, owner_id, created_at FROM servers WHERE id = ?`, id))
}

func (d *DB) ServerByInviteCode(ctx context.Context, code string) (*domain.Server, error) {
	return d.scanServer(d.sql.QueryRowContext(ctx,
		`SELECT id, name, invite_code, owner_id, created_at FROM servers WHERE invite_code = ?`,
		domain.NormalizeInviteCode(code)))
}

func (d *DB) ServersByUserID(ctx context.Context, userID domain.UserID) ([]domain.Server, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT s.id, s.name, s.invite_code, s.owner_id, s.created_at
		 FROM servers s
		 INNER JOIN server_members sm ON s.id = sm.server_id
		 WHERE sm.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("servers by user: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Server, 0)
	for rows.Next() {
		var s domain.Server
		if err := rows.Scan(&s.ID, &s.Name, &s.InviteCode, &s.OwnerID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *DB) AddMember(ctx context.Context, serverID domain.ServerID, userID domain.UserID, role domain.Role) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO server_members (user_id, server_id, role, joined_at)
		 VALUES (?, ?, ?, ?)`,
		userID, serverID, role, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("Already a member of this server")
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (d *DB) ServerMembers(ctx context.Context, serverID domain.ServerID) ([]domain.ServerMember, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT sm.user_id, sm.server_id, u.username, sm.role
		 FROM server_members sm
		 INNER JOIN users u ON sm.user_id = u.id
		 WHERE sm.server_id = ?`, serverID)
	if err != nil {
		return nil, fmt.Errorf("server members: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ServerMember, 0)
	for rows.Next() {
		var m domain.ServerMember
		if err := rows.Scan(&m.UserID, &m.ServerID, &m.Username, &m.Role); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RoleOf returns RoleNone without error when the user is not a member.
func (d *DB) RoleOf(ctx context.Context, serverID domain.ServerID, userID domain.UserID) (domain.Role, error) {
	var role domain.Role
	err := d.sql.QueryRowContext(ctx,
		`SELECT role FROM server_members WHERE server_id = ? AND user_id = ?`,
		serverID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RoleNone, nil
	}
	if err != nil {
		return domain.RoleNone, fmt.Errorf("role of: %w", err)
	}
	return role, nil
}

// UpdateMemberRole never touches an owner row.
func (d *DB) UpdateMemberRole(ctx context.Context, serverID domain.ServerID, userID domain.UserID, role domain.Role) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		`UPDATE server_members SET role = ?
		 WHERE server_id = ? AND user_id = ? AND role != ?`,
		role, serverID, userID, domain.RoleOwner)
	if err != nil {
		return false, fmt.Errorf("update role: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (d *DB) scanServer(row *sql.Row) (*domain.Server, error) {
	var s domain.Server
	err := row.Scan(&s.ID, &s.Name, &s.InviteCode, &s.OwnerID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Server not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan server: %w", err)
	}
	return &s, nil
}

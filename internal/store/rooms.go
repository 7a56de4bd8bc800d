package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/domain"
)

func (d *DB) CreateRoom(ctx context.Context, r *domain.Room) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO rooms (id, server_id, name, voice_mode, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ServerID, r.Name, r.VoiceMode, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (d *DB) RoomByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var r domain.Room
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, server_id, name, voice_mode, created_at FROM rooms WHERE id = ?`,
		id).Scan(&r.ID, &r.ServerID, &r.Name, &r.VoiceMode, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Room not found")
	}
	if err != nil {
		return nil, fmt.Errorf("room by id: %w", err)
	}
	return &r, nil
}

func (d *DB) RoomsByServer(ctx context.Context, serverID domain.ServerID) ([]domain.Room, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, server_id, name, voice_mode, created_at FROM rooms WHERE server_id = ?`,
		serverID)
	if err != nil {
		return nil, fmt.Errorf("rooms by server: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Room, 0)
	for rows.Next() {
		var r domain.Room
		if err := rows.Scan(&r.ID, &r.ServerID, &r.Name, &r.VoiceMode, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) DeleteRoom(ctx context.Context, id domain.RoomID) (bool, error) {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete room: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

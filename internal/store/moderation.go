package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/exortc/server/internal/domain"
)

// UpsertMute keeps one row per (server, user); re-muting refreshes the
// metadata instead of duplicating state.
func (d *DB) UpsertMute(ctx context.Context, m *domain.Mute) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO server_mutes (server_id, user_id, muted_by, reason, muted_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(server_id, user_id) DO UPDATE SET
			muted_by = excluded.muted_by,
			reason   = excluded.reason,
			muted_at = excluded.muted_at`,
		m.ServerID, m.UserID, m.MutedBy, m.Reason, m.MutedAt)
	if err != nil {
		return fmt.Errorf("upsert mute: %w", err)
	}
	return nil
}

func (d *DB) DeleteMute(ctx context.Context, serverID domain.ServerID, userID domain.UserID) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		`DELETE FROM server_mutes WHERE server_id = ? AND user_id = ?`, serverID, userID)
	if err != nil {
		return false, fmt.Errorf("delete mute: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (d *DB) IsMuted(ctx context.Context, serverID domain.ServerID, userID domain.UserID) (bool, error) {
	var one int
	err := d.sql.QueryRowContext(ctx,
		`SELECT 1 FROM server_mutes WHERE server_id = ? AND user_id = ?`,
		serverID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is muted: %w", err)
	}
	return true, nil
}

// MutedSet is used when building a full room roster, one query instead
// of one per member.
func (d *DB) MutedSet(ctx context.Context, serverID domain.ServerID) (map[domain.UserID]bool, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT user_id FROM server_mutes WHERE server_id = ?`, serverID)
	if err != nil {
		return nil, fmt.Errorf("muted set: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.UserID]bool)
	for rows.Next() {
		var id domain.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan muted: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (d *DB) InsertKick(ctx context.Context, k *domain.Kick) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO server_kicks (id, server_id, user_id, kicked_by, reason, kicked_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		k.ID, k.ServerID, k.UserID, k.KickedBy, k.Reason, k.KickedAt, k.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert kick: %w", err)
	}
	return nil
}

// ActiveKick returns the latest unexpired kick or nil. Expired rows are
// never deleted here; they are simply not selected.
func (d *DB) ActiveKick(ctx context.Context, serverID domain.ServerID, userID domain.UserID, now time.Time) (*domain.Kick, error) {
	var k domain.Kick
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, server_id, user_id, kicked_by, COALESCE(reason, ''), kicked_at, expires_at
		 FROM server_kicks
		 WHERE server_id = ? AND user_id = ? AND expires_at > ?
		 ORDER BY expires_at DESC LIMIT 1`,
		serverID, userID, now).Scan(
		&k.ID, &k.ServerID, &k.UserID, &k.KickedBy, &k.Reason, &k.KickedAt, &k.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active kick: %w", err)
	}
	return &k, nil
}

// Package store persists identity, membership and moderation state.
// The coordinator only ever sees the narrow interface declared in
// internal/app; everything here is plain database/sql against sqlite.
package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT UNIQUE NOT NULL,
	email         TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	profile_color TEXT NOT NULL DEFAULT '#CC2244',
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS servers (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	invite_code TEXT UNIQUE NOT NULL,
	owner_id    TEXT NOT NULL REFERENCES users(id),
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS server_members (
	user_id   TEXT NOT NULL REFERENCES users(id),
	server_id TEXT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
	role      TEXT NOT NULL DEFAULT 'member',
	joined_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, server_id)
);

CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	server_id  TEXT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	voice_mode TEXT NOT NULL DEFAULT 'ptt',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rooms_server ON rooms(server_id);

CREATE TABLE IF NOT EXISTS server_mutes (
	server_id TEXT NOT NULL,
	user_id   TEXT NOT NULL,
	muted_by  TEXT NOT NULL,
	reason    TEXT,
	muted_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (server_id, user_id)
);

CREATE TABLE IF NOT EXISTS server_kicks (
	id         TEXT PRIMARY KEY,
	server_id  TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	kicked_by  TEXT NOT NULL,
	reason     TEXT,
	kicked_at  TIMESTAMP NOT NULL,
	expires_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kicks_target ON server_kicks(server_id, user_id, expires_at);
`

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Info().Str("module", "store").Str("path", path).Msg("database ready")
	return &DB{sql: db}, nil
}

func (d *DB) Close() error { return d.sql.Close() }

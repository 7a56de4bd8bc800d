package domain

import "time"

// Mute is server-wide: the muted user's outgoing audio is suppressed in
// every room of the server until the mute row is removed.
type Mute struct {
	ServerID ServerID  `json:"server_id"`
	UserID   UserID    `json:"user_id"`
	MutedBy  UserID    `json:"muted_by"`
	Reason   string    `json:"reason,omitempty"`
	MutedAt  time.Time `json:"muted_at"`
}

// Kick is a timed ban from a server's rooms. Expiry is evaluated lazily
// at each check; expired rows stay in the store and must be inert.
type Kick struct {
	ID        string    `json:"id"`
	ServerID  ServerID  `json:"server_id"`
	UserID    UserID    `json:"user_id"`
	KickedBy  UserID    `json:"kicked_by"`
	Reason    string    `json:"reason,omitempty"`
	KickedAt  time.Time `json:"kicked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (k *Kick) Active(now time.Time) bool {
	return k != nil && now.Before(k.ExpiresAt)
}

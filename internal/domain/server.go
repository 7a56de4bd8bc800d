package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ServerID string

type Server struct {
	ID         ServerID  `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	OwnerID    UserID    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type ServerMember struct {
	UserID   UserID   `json:"user_id"`
	ServerID ServerID `json:"server_id"`
	Username string   `json:"username"`
	Role     Role     `json:"role"`
}

const (
	inviteCodeLen     = 6
	inviteCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func NewServer(name string, ownerID UserID) *Server {
	return &Server{
		ID:         ServerID(uuid.NewString()),
		Name:       name,
		InviteCode: NewInviteCode(),
		OwnerID:    ownerID,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewInviteCode returns a short uppercase alphanumeric join token.
// Uniqueness is enforced by the store's unique index, not here.
func NewInviteCode() string {
	buf := make([]byte, inviteCodeLen)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = inviteCodeCharset[int(b)%len(inviteCodeCharset)]
	}
	return string(buf)
}

// NormalizeInviteCode maps user input onto the stored form.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/auth"
	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

// Store is the narrow persistence surface the coordinator requires.
// *store.DB implements it; tests use an in-memory fake.
type Store interface {
	UserByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	RoomByID(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	DeleteRoom(ctx context.Context, id domain.RoomID) (bool, error)
	RoleOf(ctx context.Context, serverID domain.ServerID, userID domain.UserID) (domain.Role, error)
	ServerMembers(ctx context.Context, serverID domain.ServerID) ([]domain.ServerMember, error)
	MutedSet(ctx context.Context, serverID domain.ServerID) (map[domain.UserID]bool, error)
	UpsertMute(ctx context.Context, m *domain.Mute) error
	DeleteMute(ctx context.Context, serverID domain.ServerID, userID domain.UserID) (bool, error)
	InsertKick(ctx context.Context, k *domain.Kick) error
	ActiveKick(ctx context.Context, serverID domain.ServerID, userID domain.UserID, now time.Time) (*domain.Kick, error)
}

// Coordinator is the single-process session authority: it owns room
// occupancy transitions, shout fan-out and moderation, and emits every
// outbound event. All state mutations serialize on mu so a join cannot
// race a concurrent room deletion or kick into an inconsistent roster;
// relay traffic never takes mu.
type Coordinator struct {
	mu sync.Mutex

	Registry *Registry
	Store    Store
	Tokens   *auth.Tokens

	// Now is swappable for kick-expiry tests.
	Now func() time.Time
}

func NewCoordinator(reg *Registry, st Store, tokens *auth.Tokens) *Coordinator {
	return &Coordinator{
		Registry: reg,
		Store:    st,
		Tokens:   tokens,
		Now:      time.Now,
	}
}

// Authenticate validates the bearer credential presented at connect time
// and resolves it to a user. It runs exactly once, before any other
// session operation; rejected connections never reach a handler.
func (c *Coordinator) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	if rawToken == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	claims, err := c.Tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}
	user, err := c.Store.UserByID(ctx, domain.UserID(claims.UserID))
	if err != nil {
		return nil, apperr.Unauthorized("User not found")
	}
	return user, nil
}

// Connect binds an authenticated identity to its live connection.
func (c *Coordinator) Connect(sid core.SessionID, user *domain.User, conn core.SignalConnection, cancel context.CancelFunc) {
	c.Registry.Bind(sid, user, conn, cancel)
}

// Disconnect tears the session down synchronously: occupancy is removed
// and peers notified before the session disappears, no graceful linger.
func (c *Coordinator) Disconnect(ctx context.Context, sid core.SessionID) {
	c.mu.Lock()
	c.leaveLocked(ctx, sid, false)
	c.mu.Unlock()
	c.Registry.Unbind(sid)
}

func (c *Coordinator) SubscribeServer(sid core.SessionID, serverID domain.ServerID) {
	c.Registry.Subscribe(sid, serverID)
}

func (c *Coordinator) UnsubscribeServer(sid core.SessionID, serverID domain.ServerID) {
	c.Registry.Unsubscribe(sid, serverID)
}

func (c *Coordinator) send(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("marshal event")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		log.Debug().Err(err).Str("module", "app.coordinator").Msg("dropped event")
	}
}

// publishServer delivers a server-scoped event to every subscriber.
func (c *Coordinator) publishServer(serverID domain.ServerID, v any) {
	for _, p := range c.Registry.Subscribers(serverID) {
		c.send(p.Conn, v)
	}
}

// broadcastRoom delivers to a room's occupants, except the excluded sid.
func (c *Coordinator) broadcastRoom(roomID domain.RoomID, exclude core.SessionID, v any) {
	for _, p := range c.Registry.MembersOfRoom(roomID) {
		if p.SID == exclude {
			continue
		}
		c.send(p.Conn, v)
	}
}

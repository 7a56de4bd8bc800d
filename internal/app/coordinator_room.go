package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

// JoinRoom moves the session into a room. If the session already
// occupies a different room it leaves first; there is never a moment
// with two occupancies. Event order: user-left to the old room, then
// user-joined to the new room's peers, then room-joined back to the
// joiner, then a roster publish to server subscribers. A join for the
// room the session already occupies re-confirms the roster without
// duplicate peer events.
func (c *Coordinator) JoinRoom(ctx context.Context, sid core.SessionID, roomID domain.RoomID) error {
	p, ok := c.Registry.Get(sid)
	if !ok {
		return apperr.Internal("session not bound")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The room row is read under the lock: a concurrent DeleteRoom
	// either finishes first and this join fails, or waits and evicts
	// the occupancy it registered.
	room, err := c.Store.RoomByID(ctx, roomID)
	if err != nil {
		return err
	}

	current, inRoom := c.Registry.RoomOf(sid)
	if inRoom && current != roomID {
		c.leaveLocked(ctx, sid, false)
	}
	rejoin := inRoom && current == roomID

	kick, err := c.Store.ActiveKick(ctx, room.ServerID, p.UserID, c.Now())
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}
	if kick.Active(c.Now()) {
		return apperr.Forbidden("You are kicked from this server")
	}

	muted, err := c.Store.MutedSet(ctx, room.ServerID)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}

	c.Registry.SetRoom(sid, roomID)

	joined := core.UserJoined{
		Type:          core.EvUserJoined,
		UserID:        string(p.UserID),
		Username:      p.Username,
		Ping:          p.LatencyMs,
		IsServerMuted: muted[p.UserID],
	}
	members := make([]core.RoomMember, 0)
	for _, peer := range c.Registry.MembersOfRoom(roomID) {
		// The roster sent back excludes the joiner itself.
		if peer.SID == sid {
			continue
		}
		if !rejoin {
			c.send(peer.Conn, joined)
		}
		members = append(members, core.RoomMember{
			UserID:        string(peer.UserID),
			Username:      peer.Username,
			Ping:          peer.LatencyMs,
			IsServerMuted: muted[peer.UserID],
		})
	}

	c.send(p.Conn, core.RoomJoined{Type: core.EvRoomJoined, RoomID: string(roomID), Members: members})
	if !rejoin {
		c.publishServer(room.ServerID, core.RoomsUpdated{Type: core.EvRoomsUpdated})
	}

	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("joined room")
	return nil
}

// LeaveRoom is a no-op when the session occupies no room.
func (c *Coordinator) LeaveRoom(ctx context.Context, sid core.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked(ctx, sid, true)
}

// Evict has the effect of a leave but originates from a privileged
// actor, so the target gets no room-left confirmation.
func (c *Coordinator) Evict(ctx context.Context, sid core.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked(ctx, sid, false)
}

// leaveLocked removes occupancy and notifies former peers. Callers hold mu.
func (c *Coordinator) leaveLocked(ctx context.Context, sid core.SessionID, confirm bool) {
	p, ok := c.Registry.Get(sid)
	if !ok {
		return
	}
	roomID, ok := c.Registry.RoomOf(sid)
	if !ok {
		return
	}
	c.Registry.ClearRoom(sid)

	left := core.UserLeft{Type: core.EvUserLeft, UserID: string(p.UserID), Username: p.Username}
	c.broadcastRoom(roomID, sid, left)
	if confirm {
		c.send(p.Conn, core.RoomLeft{Type: core.EvRoomLeft})
	}

	// The room row may already be gone if leave races a deletion; the
	// roster publish is skipped then, DeleteRoom publishes its own.
	if room, err := c.Store.RoomByID(ctx, roomID); err == nil {
		c.publishServer(room.ServerID, core.RoomsUpdated{Type: core.EvRoomsUpdated})
	}
	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("left room")
}

// DeleteRoom broadcasts room-deleted to every occupant, evicts them all
// and removes the row. Permission gating happens at the HTTP boundary.
func (c *Coordinator) DeleteRoom(ctx context.Context, room *domain.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := core.RoomDeleted{Type: core.EvRoomDeleted, RoomID: string(room.ID)}
	for _, p := range c.Registry.MembersOfRoom(room.ID) {
		c.send(p.Conn, deleted)
		c.Registry.ClearRoom(p.SID)
	}

	if _, err := c.Store.DeleteRoom(ctx, room.ID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}
	c.publishServer(room.ServerID, core.RoomsUpdated{Type: core.EvRoomsUpdated})
	log.Info().Str("module", "app.coordinator").Str("room", string(room.ID)).Msg("room deleted")
	return nil
}

// NotifyRoomsUpdated is used by the HTTP layer after a room is created.
func (c *Coordinator) NotifyRoomsUpdated(serverID domain.ServerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishServer(serverID, core.RoomsUpdated{Type: core.EvRoomsUpdated})
}
